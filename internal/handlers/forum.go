// internal/handlers/forum.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ForumHandler struct {
	forumService *services.ForumService
}

func NewForumHandler(forumService *services.ForumService) *ForumHandler {
	return &ForumHandler{
		forumService: forumService,
	}
}

// GET /forum/posts
func (h *ForumHandler) ListPosts(c *gin.Context) {
	params := services.PostListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Topic:            c.Query("topic"),
	}

	posts, total, err := h.forumService.ListPosts(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(posts, total, params.PaginationParams))
}

// POST /forum/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.forumService.CreatePost(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.CreatedResponse(c, post)
}

// GET /forum/posts/:id
func (h *ForumHandler) GetPost(c *gin.Context) {
	postID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	post, err := h.forumService.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.SuccessResponse(c, post)
}

// PUT /forum/posts/:id
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	userID, isAdmin, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.forumService.UpdatePost(c.Request.Context(), postID, userID, isAdmin, &req)
	if err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.SuccessResponse(c, post)
}

// DELETE /forum/posts/:id
func (h *ForumHandler) DeletePost(c *gin.Context) {
	userID, isAdmin, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.forumService.DeletePost(c.Request.Context(), postID, userID, isAdmin); err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.NoContentResponse(c)
}

// GET /forum/posts/:id/comments
func (h *ForumHandler) ListComments(c *gin.Context) {
	postID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	comments, err := h.forumService.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.SuccessResponse(c, comments)
}

// POST /forum/posts/:id/comments
func (h *ForumHandler) CreateComment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.forumService.CreateComment(c.Request.Context(), postID, userID, &req)
	if err != nil {
		respondError(c, err, i18n.KeyPostNotFound)
		return
	}

	utils.CreatedResponse(c, comment)
}

// PUT /forum/comments/:id
func (h *ForumHandler) UpdateComment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.forumService.UpdateComment(c.Request.Context(), commentID, userID, &req)
	if err != nil {
		respondError(c, err, i18n.KeyCommentNotFound)
		return
	}

	utils.SuccessResponse(c, comment)
}

// DELETE /forum/comments/:id
func (h *ForumHandler) DeleteComment(c *gin.Context) {
	userID, isAdmin, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.forumService.DeleteComment(c.Request.Context(), commentID, userID, isAdmin); err != nil {
		respondError(c, err, i18n.KeyCommentNotFound)
		return
	}

	utils.NoContentResponse(c)
}

// POST /forum/comments/:id/like
func (h *ForumHandler) LikeComment(c *gin.Context) {
	commentID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	comment, err := h.forumService.LikeComment(c.Request.Context(), commentID)
	if err != nil {
		respondError(c, err, i18n.KeyCommentNotFound)
		return
	}

	utils.SuccessResponse(c, comment)
}
