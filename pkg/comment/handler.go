package comment

import (
	"net/http"

	"github.com/offerboard/offer-manager/internal/handler"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
)

func NewHandler(commentService *Service) Handler {
	return Handler{commentService}
}

type Handler struct {
	commentService *Service
}

type PostCommentRequest struct {
	Content   string `json:"content" binding:"required"`
	ReplyToID *uint  `json:"replyToId"`
}

// Post a comment
func (h Handler) Post(c *gin.Context) {
	// swagger:route POST /offers/{id}/comments postComment
	//
	// Post comment
	//
	// Comment on a visible offer. BBCode content, optionally replying to an
	// existing comment on the same offer.
	//
	// responses:
	//   201: Comment
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request PostCommentRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	comment, err := h.commentService.PostComment(c, user, id, request.Content, request.ReplyToID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// List the comments of an offer
func (h Handler) List(c *gin.Context) {
	// swagger:route GET /offers/{id}/comments listComments
	//
	// List comments
	//
	// Visible comments of a visible offer, oldest first.
	//
	// responses:
	//   200: []Comment
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// Like a comment
func (h Handler) Like(c *gin.Context) {
	// swagger:route POST /comments/{id}/likes likeComment
	//
	// Like comment
	//
	// Like a visible comment. Idempotent.
	//
	// responses:
	//   204:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.commentService.Like(c, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Unlike a comment
func (h Handler) Unlike(c *gin.Context) {
	// swagger:route DELETE /comments/{id}/likes unlikeComment
	//
	// Unlike comment
	//
	// Remove the caller's like. Idempotent.
	//
	// responses:
	//   204:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.commentService.Unlike(c, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type ModerateRequest struct {
	Status string `json:"status" binding:"required,oneOf=p u d"`
}

// Moderate a comment
func (h Handler) Moderate(c *gin.Context) {
	// swagger:route PUT /comments/{id}/status moderateComment
	//
	// Moderate comment
	//
	// Publish, unpublish or soft-delete a comment. Administrators only.
	//
	// responses:
	//   200: Comment
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	var request ModerateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	comment, err := h.commentService.SetStatus(c, id, model.CommentStatus(request.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}
