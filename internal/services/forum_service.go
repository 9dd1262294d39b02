// internal/services/forum_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ForumService struct {
	db *gorm.DB
}

type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Content string `json:"content" validate:"required,min=1"`
	Topic   string `json:"topic" validate:"omitempty,max=100"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Topic   *string `json:"topic,omitempty" validate:"omitempty,max=100"`
}

type CreateCommentRequest struct {
	Content  string     `json:"content" validate:"required,min=1,max=5000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

type PostListParams struct {
	utils.PaginationParams
	Topic string `json:"topic,omitempty"`
}

func NewForumService(db *gorm.DB) *ForumService {
	return &ForumService{db: db}
}

// OrganizeComments groups a flat, ordered comment list into top-level
// comments carrying their replies. Comments are bucketed by parent id once and
// every bucket hangs off its direct parent, so a reply to a reply sits in its
// parent's Replies. Input order is kept within each bucket. Comments whose
// parent is missing, and everything below them, are dropped.
func OrganizeComments(comments []models.Comment) []models.Comment {
	buckets := make(map[uuid.UUID][]int, len(comments))
	for i, c := range comments {
		if c.ParentID != nil {
			buckets[*c.ParentID] = append(buckets[*c.ParentID], i)
		}
	}

	// onPath guards against ids that repeat along one branch.
	onPath := make(map[uuid.UUID]bool)
	var attach func(i int) models.Comment
	attach = func(i int) models.Comment {
		c := comments[i]
		onPath[c.ID] = true
		c.Replies = make([]models.Comment, 0, len(buckets[c.ID]))
		for _, child := range buckets[c.ID] {
			if onPath[comments[child].ID] {
				continue
			}
			c.Replies = append(c.Replies, attach(child))
		}
		delete(onPath, c.ID)
		return c
	}

	result := make([]models.Comment, 0, len(comments))
	for i, c := range comments {
		if c.ParentID == nil {
			result = append(result, attach(i))
		}
	}
	return result
}

func (s *ForumService) ListPosts(ctx context.Context, params PostListParams) ([]models.ForumPost, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ForumPost{})
	if params.Topic != "" {
		query = query.Where("topic = ?", params.Topic)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "updated_at", "comment_count", "title"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var posts []models.ForumPost
	if err := query.Preload("Author").Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return posts, total, nil
}

func (s *ForumService) CreatePost(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*models.ForumPost, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	post := &models.ForumPost{
		AuthorID: authorID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Topic:    req.Topic,
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return s.GetPost(ctx, post.ID)
}

func (s *ForumService) GetPost(ctx context.Context, id uuid.UUID) (*models.ForumPost, error) {
	var post models.ForumPost
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &post, nil
}

func (s *ForumService) UpdatePost(ctx context.Context, id, userID uuid.UUID, isAdmin bool, req *UpdatePostRequest) (*models.ForumPost, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID && !isAdmin {
		return nil, fmt.Errorf("post %s: %w", id, ErrForbidden)
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Topic != nil {
		updates["topic"] = *req.Topic
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update post: %w", err)
		}
	}
	return s.GetPost(ctx, id)
}

func (s *ForumService) DeletePost(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != userID && !isAdmin {
		return fmt.Errorf("post %s: %w", id, ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Delete(post).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

// ListComments returns the threaded comments of a post, oldest first.
func (s *ForumService) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}
	return OrganizeComments(comments), nil
}

// CreateComment adds a comment to a post. A parent must belong to the same
// post.
func (s *ForumService) CreateComment(ctx context.Context, postID, authorID uuid.UUID, req *CreateCommentRequest) (*models.Comment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		ParentID: req.ParentID,
		AuthorID: authorID,
		Content:  req.Content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ParentID != nil {
			var count int64
			if err := tx.Model(&models.Comment{}).
				Where("id = ? AND post_id = ?", *req.ParentID, postID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check parent comment: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("%w: parent comment %s is not part of post %s", ErrValidation, *req.ParentID, postID)
			}
		}

		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return tx.Model(&models.ForumPost{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	return s.getComment(ctx, comment.ID)
}

func (s *ForumService) UpdateComment(ctx context.Context, id, userID uuid.UUID, req *UpdateCommentRequest) (*models.Comment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	comment, err := s.getComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, fmt.Errorf("comment %s: %w", id, ErrForbidden)
	}

	if err := s.db.WithContext(ctx).Model(comment).Updates(map[string]interface{}{
		"content": req.Content,
		"edited":  true,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return s.getComment(ctx, id)
}

func (s *ForumService) DeleteComment(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID && !isAdmin {
		return fmt.Errorf("comment %s: %w", id, ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(comment).Error; err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return tx.Model(&models.ForumPost{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
	})
}

func (s *ForumService) LikeComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	result := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to like comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return s.getComment(ctx, id)
}

func (s *ForumService) getComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &comment, nil
}
