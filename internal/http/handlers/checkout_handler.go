package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
)

// CheckoutResponse carries the hosted checkout redirect target.
type CheckoutResponse struct {
	URL string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_a1b2c3"`
}

// CreateCheckout godoc
// @ID          createCheckout
// @Summary     Start an FDD Analyzer purchase
// @Description Creates a Stripe checkout session for the single-use FDD analyzer and returns its URL.
// @Tags        Checkout
// @Produce     json
// @Success     200  {object}  handlers.CheckoutResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create checkout session"
// @Router      /create-checkout [post]
func (h *Handlers) CreateCheckout(c *gin.Context) {
	h.createCheckout(c, domain.ProductFDDAnalyzer)
}

// CreateCheckoutEngine godoc
// @ID          createCheckoutEngine
// @Summary     Start a Decision Engine purchase
// @Description Creates a Stripe checkout session for the decision engine bundle and returns its URL.
// @Tags        Checkout
// @Produce     json
// @Success     200  {object}  handlers.CheckoutResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to create checkout session"
// @Router      /create-checkout-engine [post]
func (h *Handlers) CreateCheckoutEngine(c *gin.Context) {
	h.createCheckout(c, domain.ProductDecisionEngine)
}

func (h *Handlers) createCheckout(c *gin.Context, product domain.Product) {
	url, err := h.checkoutSvc.Create(c.Request.Context(), product)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeCheckoutFailed, "Failed to create checkout session")
		return
	}
	ok(c, http.StatusOK, CheckoutResponse{URL: url})
}
