package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

// CompleteSessionRequest is the JSON payload for stamping a token consumed.
type CompleteSessionRequest struct {
	Token string `json:"token" example:"cs_test_a1b2c3d4e5f6"`
}

// SuccessResponse is the body of operations that only report success.
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Subscribed successfully"`
}

// VerifySession godoc
// @ID          verifySession
// @Summary     Check a purchase token
// @Description Reads the checkout session at Stripe and reports whether it can unlock the product.
// @Description invalid/unpaid/used are ordinary outcomes (200); only a provider outage is an error.
// @Tags        Sessions
// @Produce     json
// @Param       session_id  query  string  true   "Checkout session id"  example(cs_test_a1b2c3d4e5f6)
// @Param       product     query  string  false  "Product the token must be for"  Enums(fdd_analyzer, decision_engine) default(fdd_analyzer)
// @Success     200  {object}  domain.Verification
// @Failure     400  {object}  domain.Verification  "Missing or malformed session id"
// @Failure     500  {object}  domain.Verification  "Payment provider unreachable"
// @Router      /verify-session [get]
func (h *Handlers) VerifySession(c *gin.Context) {
	token := strings.TrimSpace(c.Query("session_id"))
	product := domain.Product(c.DefaultQuery("product", string(domain.ProductFDDAnalyzer)))

	v, err := h.tokenSvc.Verify(c.Request.Context(), token, product)
	switch {
	case errors.Is(err, services.ErrMalformedToken):
		failWith(c, http.StatusBadRequest, ErrCodeInvalidSession, "Invalid session",
			gin.H{"valid": false, "reason": domain.ReasonInvalid})
	case err != nil:
		_ = c.Error(err)
		failWith(c, http.StatusInternalServerError, ErrCodeUpstream, "Verification failed",
			gin.H{"valid": false, "reason": domain.ReasonConnection})
	default:
		ok(c, http.StatusOK, v)
	}
}

// CompleteSession godoc
// @ID          completeSession
// @Summary     Mark a purchase token consumed
// @Description Stamps the token's payment intent as used. Repeating the call on a used token succeeds without writing.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CompleteSessionRequest  true  "Token to consume"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid session"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to complete session"
// @Router      /complete-session [post]
func (h *Handlers) CompleteSession(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "Missing token")
		return
	}

	_, err := h.tokenSvc.Consume(c.Request.Context(), strings.TrimSpace(req.Token))
	switch {
	case errors.Is(err, services.ErrInvalidSession), errors.Is(err, services.ErrPaymentNotVerified):
		fail(c, http.StatusForbidden, ErrCodeInvalidSession, "Invalid session")
	case err != nil:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeCompleteFailed, "Failed to complete session")
	default:
		ok(c, http.StatusOK, SuccessResponse{Success: true})
	}
}
