package v1

import (
	"net/http"

	"merchandiser-backend/internal/delivery/http/response"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/audit"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewUC domain.ReviewUsecase
}

// NewReviewHandler registers review routes. Reading is public; writing needs
// an authenticated reviewer.
func NewReviewHandler(public, protected *gin.RouterGroup, reviewUC domain.ReviewUsecase) {
	handler := &ReviewHandler{reviewUC: reviewUC}

	public.GET("/merchandisers/:id/reviews", handler.List)
	public.GET("/merchandisers/:id/reviews/stats", handler.Stats)

	protected.POST("/merchandisers/:id/reviews", handler.Create)
	protected.PUT("/reviews/:id", handler.Update)
	protected.DELETE("/reviews/:id", handler.Remove)
}

// List godoc
// @Summary      List reviews of a merchandiser
// @Tags         reviews
// @Produce      json
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      200  {object}  response.Response
// @Router       /merchandisers/{id}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return
	}

	reviews, err := h.reviewUC.List(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Reviews retrieved", reviews)
}

// Stats godoc
// @Summary      Review statistics of a merchandiser
// @Tags         reviews
// @Produce      json
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      200  {object}  response.Response
// @Router       /merchandisers/{id}/reviews/stats [get]
func (h *ReviewHandler) Stats(c *gin.Context) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return
	}

	stats, err := h.reviewUC.Stats(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Review stats retrieved", stats)
}

// Create godoc
// @Summary      Review a merchandiser
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Merchandiser ID"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /merchandisers/{id}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	id, err := parseID(c, "merchandiser")
	if err != nil {
		c.Error(err)
		return
	}

	var input domain.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	review, err := h.reviewUC.Create(c.Request.Context(), viewerID(c), id, input)
	if err != nil {
		c.Error(err)
		return
	}
	logChange(c, audit.EventReviewChanged, "review", review.ID)
	response.Success(c, http.StatusCreated, "Review created", review)
}

// Update godoc
// @Summary      Change my review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Review ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /reviews/{id} [put]
func (h *ReviewHandler) Update(c *gin.Context) {
	id, err := parseID(c, "review")
	if err != nil {
		c.Error(err)
		return
	}

	var input domain.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	review, err := h.reviewUC.Update(c.Request.Context(), viewerID(c), id, input)
	if err != nil {
		c.Error(err)
		return
	}
	logChange(c, audit.EventReviewChanged, "review", id)
	response.Success(c, http.StatusOK, "Review updated", review)
}

// Remove godoc
// @Summary      Delete my review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id   path      int  true  "Review ID"
// @Success      200  {object}  response.Response
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Remove(c *gin.Context) {
	id, err := parseID(c, "review")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.reviewUC.Remove(c.Request.Context(), viewerID(c), id); err != nil {
		c.Error(err)
		return
	}
	logChange(c, audit.EventReviewChanged, "review", id)
	response.Success(c, http.StatusOK, "Review deleted", nil)
}
