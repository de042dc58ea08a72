package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/services"
	"github.com/tbourn/fdd-analyzer-backend/internal/utils"
)

// ItemNumber is an FDD item number sent either as a JSON number or as a
// numeric string. Anything unparsable decodes to 0, which counts as missing.
type ItemNumber int

// UnmarshalJSON accepts 19, "19" and null.
func (n *ItemNumber) UnmarshalJSON(b []byte) error {
	*n = ItemNumber(utils.IntFromJSON(b, 0))
	return nil
}

// AnalyzeRequest is the JSON payload of one item analysis.
type AnalyzeRequest struct {
	Token   string     `json:"token" example:"cs_test_a1b2c3d4e5f6"`
	ItemNum ItemNumber `json:"itemNum" swaggertype:"integer" example:"19"`
	Text    string     `json:"text" example:"Item 19 Financial Performance Representations..."`
	Prompt  string     `json:"prompt" example:"Analyze for financial misrepresentation"`
}

// AnalyzeResponse holds 1 to 8 findings.
type AnalyzeResponse struct {
	Findings []domain.Finding `json:"findings"`
}

// Analyze godoc
// @ID          analyze
// @Summary     Analyze one FDD item
// @Description Verifies the purchase token, sends the item text to the model and returns structured findings.
// @Description Unparsable model output yields a single advisory finding with status 200.
// @Tags        Analysis
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AnalyzeRequest  true  "Item to analyze"
// @Success     200  {object}  handlers.AnalyzeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing required fields / Text too short for analysis"
// @Failure     403  {object}  handlers.ErrorResponse  "Payment not verified / Analysis already completed / Invalid session"
// @Failure     500  {object}  handlers.AnalyzeResponse  "Analysis failed (carries one fallback finding)"
// @Router      /analyze [post]
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "Missing required fields")
		return
	}

	res, err := h.analysisSvc.Analyze(c.Request.Context(), domain.AnalysisRequest{
		Token:   strings.TrimSpace(req.Token),
		ItemNum: int(req.ItemNum),
		Text:    req.Text,
		Prompt:  req.Prompt,
	})
	switch {
	case errors.Is(err, services.ErrMissingFields):
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "Missing required fields")
	case errors.Is(err, services.ErrTextTooShort):
		fail(c, http.StatusBadRequest, ErrCodeTextTooShort, "Text too short for analysis")
	case errors.Is(err, services.ErrPaymentNotVerified):
		fail(c, http.StatusForbidden, ErrCodePaymentNotVerified, "Payment not verified")
	case errors.Is(err, services.ErrAlreadyAnalyzed):
		fail(c, http.StatusForbidden, ErrCodeAlreadyUsed, "Analysis already completed")
	case errors.Is(err, services.ErrInvalidSession):
		fail(c, http.StatusForbidden, ErrCodeInvalidSession, "Invalid session")
	case err != nil:
		_ = c.Error(err)
		findings := res.Findings
		if len(findings) == 0 {
			findings = []domain.Finding{services.FallbackServiceIssue}
		}
		failWith(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, "Analysis failed",
			gin.H{"findings": findings})
	default:
		ok(c, http.StatusOK, AnalyzeResponse{Findings: res.Findings})
	}
}
