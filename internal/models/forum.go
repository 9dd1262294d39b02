// internal/models/forum.go
package models

import (
	"github.com/google/uuid"
)

type ForumPost struct {
	BaseModel
	AuthorID     uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	Topic        string    `json:"topic" gorm:"size:100;index"`
	CommentCount int64     `json:"comment_count" gorm:"default:0"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// Comment belongs to a forum post. ParentID is nil for top-level comments.
type Comment struct {
	BaseModel
	PostID    uuid.UUID  `json:"post_id" gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	AuthorID  uuid.UUID  `json:"author_id" gorm:"type:uuid;not null;index"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	LikeCount int64      `json:"like_count" gorm:"default:0"`
	Edited    bool       `json:"edited" gorm:"default:false"`

	Author  *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Replies []Comment `json:"replies,omitempty" gorm:"-"`
}
