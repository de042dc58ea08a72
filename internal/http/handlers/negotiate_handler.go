package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

// NegotiateRequest is one user turn of a practice negotiation.
type NegotiateRequest struct {
	Scenario    string          `json:"scenario" example:"fees"`
	History     []services.Turn `json:"history"`
	UserMessage string          `json:"userMessage" example:"Can we cap the technology fee?"`
	Token       string          `json:"token,omitempty" example:"cs_test_a1b2c3d4e5f6"`
}

// NegotiateResponse is the representative's reply.
type NegotiateResponse struct {
	Reply    string `json:"reply" example:"We can look at a cap for the first two years."`
	Scenario string `json:"scenario" example:"fees"`
}

// Negotiate godoc
// @ID          negotiate
// @Summary     Play one negotiation turn
// @Description Sends the transcript to the model playing the franchisor representative for the scenario.
// @Description Unknown scenarios use the territory representative.
// @Tags        Negotiation
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.NegotiateRequest  true  "Turn"
// @Success     200  {object}  handlers.NegotiateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing required fields"
// @Failure     403  {object}  handlers.ErrorResponse  "Payment not verified"
// @Failure     500  {object}  handlers.NegotiateResponse  "Simulation error (carries a scripted reply)"
// @Failure     503  {object}  handlers.ErrorResponse  "Service temporarily unavailable"
// @Router      /negotiate [post]
func (h *Handlers) Negotiate(c *gin.Context) {
	var req NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "Missing required fields")
		return
	}

	out, err := h.negSvc.Respond(c.Request.Context(), services.NegotiationRequest{
		Scenario:    req.Scenario,
		History:     req.History,
		UserMessage: req.UserMessage,
		Token:       req.Token,
	})
	switch {
	case errors.Is(err, services.ErrMissingFields):
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "Missing required fields")
	case errors.Is(err, services.ErrPaymentNotVerified):
		fail(c, http.StatusForbidden, ErrCodePaymentNotVerified, "Payment not verified")
	case errors.Is(err, services.ErrModelUnavailable):
		failWith(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "Service temporarily unavailable",
			gin.H{"reply": nil})
	case err != nil:
		_ = c.Error(err)
		failWith(c, http.StatusInternalServerError, ErrCodeSimulationFailed, "Simulation error",
			gin.H{"reply": services.FallbackReply})
	default:
		ok(c, http.StatusOK, NegotiateResponse{Reply: out.Reply, Scenario: out.Scenario})
	}
}
