package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

// SubscribeRequest is one mailing-list signup.
type SubscribeRequest struct {
	Email     string `json:"email" example:"buyer@example.com"`
	Source    string `json:"source" example:"calculator"`
	FirstName string `json:"firstName,omitempty" example:"Ann"`
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Join the mailing list
// @Description Adds the address to the Kit form and tags it by source when a tag is mapped. Tagging failures never surface.
// @Tags        Mailing
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SubscribeRequest  true  "Signup"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Valid email required"
// @Failure     500  {object}  handlers.ErrorResponse  "Subscription failed / Internal error"
// @Failure     503  {object}  handlers.ErrorResponse  "Email service not configured"
// @Router      /subscribe [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidEmail, "Valid email required")
		return
	}

	err := h.subSvc.Subscribe(c.Request.Context(), services.SubscribeRequest{
		Email:     strings.TrimSpace(req.Email),
		Source:    strings.TrimSpace(req.Source),
		FirstName: strings.TrimSpace(req.FirstName),
	})
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, ErrCodeInvalidEmail, "Valid email required")
	case errors.Is(err, services.ErrMailingNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "Email service not configured")
	case errors.Is(err, services.ErrSubscriptionRejected):
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeSubscribeFailed, "Subscription failed")
	case err != nil:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal error")
	default:
		ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "Subscribed successfully"})
	}
}
