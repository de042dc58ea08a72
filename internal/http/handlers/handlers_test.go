package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/llm"
	"github.com/tbourn/fdd-analyzer-backend/internal/mailing"
	"github.com/tbourn/fdd-analyzer-backend/internal/payments"
	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

// ---------- service stubs ----------

type stubCheckout struct {
	create func(context.Context, domain.Product) (string, error)
}

func (s stubCheckout) Create(ctx context.Context, p domain.Product) (string, error) {
	if s.create != nil {
		return s.create(ctx, p)
	}
	return "https://checkout.test/" + string(p), nil
}

type stubTokens struct {
	verify  func(context.Context, string, ...domain.Product) (domain.Verification, error)
	consume func(context.Context, string) (domain.ConsumeResult, error)
}

func (s stubTokens) Verify(ctx context.Context, token string, products ...domain.Product) (domain.Verification, error) {
	if s.verify != nil {
		return s.verify(ctx, token, products...)
	}
	return domain.Verification{Valid: true, Token: token}, nil
}

func (s stubTokens) Consume(ctx context.Context, token string) (domain.ConsumeResult, error) {
	if s.consume != nil {
		return s.consume(ctx, token)
	}
	return domain.ConsumeResult{Written: true}, nil
}

type stubAnalysis struct {
	analyze func(context.Context, domain.AnalysisRequest) (services.AnalysisResult, error)
}

func (s stubAnalysis) Analyze(ctx context.Context, req domain.AnalysisRequest) (services.AnalysisResult, error) {
	if s.analyze != nil {
		return s.analyze(ctx, req)
	}
	return services.AnalysisResult{Findings: []domain.Finding{{Severity: domain.SeverityGreen, Finding: "f", Question: "q"}}}, nil
}

type stubNegotiation struct {
	respond func(context.Context, services.NegotiationRequest) (services.NegotiationReply, error)
}

func (s stubNegotiation) Respond(ctx context.Context, req services.NegotiationRequest) (services.NegotiationReply, error) {
	if s.respond != nil {
		return s.respond(ctx, req)
	}
	return services.NegotiationReply{Reply: "ok", Scenario: req.Scenario}, nil
}

type stubSubscription struct {
	subscribe func(context.Context, services.SubscribeRequest) error
}

func (s stubSubscription) Subscribe(ctx context.Context, req services.SubscribeRequest) error {
	if s.subscribe != nil {
		return s.subscribe(ctx, req)
	}
	return nil
}

// memGateway holds one session and flips its consumed marker on write.
type memGateway struct {
	mu  sync.Mutex
	tok domain.PurchaseToken
}

func (g *memGateway) GetSession(_ context.Context, id string) (*domain.PurchaseToken, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id != g.tok.ID {
		return nil, fmt.Errorf("get checkout session: %w", payments.ErrSessionNotFound)
	}
	cp := g.tok
	return &cp, nil
}

func (g *memGateway) MarkConsumed(_ context.Context, piID string, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if piID == g.tok.PaymentIntentID {
		g.tok.Consumed = true
		g.tok.ConsumedAt = &at
	}
	return nil
}

type modelFunc func() string

func (f modelFunc) Complete(context.Context, llm.Request) (string, error) { return f(), nil }

type unconfiguredList struct{}

func (unconfiguredList) Configured() bool { return false }
func (unconfiguredList) CanTag() bool     { return false }
func (unconfiguredList) SubscribeToForm(context.Context, mailing.Subscriber) (string, error) {
	return "", mailing.ErrNotConfigured
}
func (unconfiguredList) Tag(context.Context, string, string) error { return mailing.ErrNotConfigured }

// ---------- harness ----------

func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/create-checkout", h.CreateCheckout)
	r.POST("/create-checkout-engine", h.CreateCheckoutEngine)
	r.GET("/verify-session", h.VerifySession)
	r.POST("/complete-session", h.CompleteSession)
	r.POST("/analyze", h.Analyze)
	r.POST("/negotiate", h.Negotiate)
	r.POST("/subscribe", h.Subscribe)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, out
}

func handlersWith(opts ...func(*Handlers)) *Handlers {
	h := New(stubCheckout{}, stubTokens{}, stubAnalysis{}, stubNegotiation{}, stubSubscription{})
	for _, o := range opts {
		o(h)
	}
	return h
}

// ---------- checkout ----------

func TestCheckout_BothProducts(t *testing.T) {
	r := newTestRouter(handlersWith())

	w, body := do(t, r, http.MethodPost, "/create-checkout", nil)
	if w.Code != http.StatusOK || body["url"] != "https://checkout.test/fdd_analyzer" {
		t.Fatalf("analyzer: %d %v", w.Code, body)
	}
	w, body = do(t, r, http.MethodPost, "/create-checkout-engine", nil)
	if w.Code != http.StatusOK || body["url"] != "https://checkout.test/decision_engine" {
		t.Fatalf("engine: %d %v", w.Code, body)
	}
}

func TestCheckout_Failure(t *testing.T) {
	r := newTestRouter(handlersWith(func(h *Handlers) {
		h.checkoutSvc = stubCheckout{create: func(context.Context, domain.Product) (string, error) {
			return "", services.ErrCheckoutFailed
		}}
	}))
	w, body := do(t, r, http.MethodPost, "/create-checkout", nil)
	if w.Code != http.StatusInternalServerError || body["error"] != "Failed to create checkout session" {
		t.Fatalf("got %d %v", w.Code, body)
	}
}

// ---------- verify / complete ----------

func TestVerifySession(t *testing.T) {
	var gotProducts []domain.Product
	tokens := stubTokens{verify: func(_ context.Context, token string, products ...domain.Product) (domain.Verification, error) {
		gotProducts = products
		switch token {
		case "":
			return domain.Verification{Reason: domain.ReasonInvalid}, services.ErrMalformedToken
		case "cs_test_down_0001":
			return domain.Verification{Reason: domain.ReasonConnection}, services.ErrProviderUnavailable
		case "cs_test_used_0001":
			return domain.Verification{Reason: domain.ReasonUsed}, nil
		}
		return domain.Verification{Valid: true, Token: token, Email: "buyer@example.com"}, nil
	}}
	r := newTestRouter(handlersWith(func(h *Handlers) { h.tokenSvc = tokens }))

	cases := []struct {
		path   string
		status int
		valid  bool
		reason any
	}{
		{"/verify-session", http.StatusBadRequest, false, "invalid"},
		{"/verify-session?session_id=cs_test_down_0001", http.StatusInternalServerError, false, "connection"},
		{"/verify-session?session_id=cs_test_used_0001", http.StatusOK, false, "used"},
		{"/verify-session?session_id=cs_test_good_0001", http.StatusOK, true, nil},
	}
	for _, tc := range cases {
		w, body := do(t, r, http.MethodGet, tc.path, nil)
		if w.Code != tc.status || body["valid"] != tc.valid || body["reason"] != tc.reason {
			t.Fatalf("%s: got %d %v", tc.path, w.Code, body)
		}
	}
	if len(gotProducts) != 1 || gotProducts[0] != domain.ProductFDDAnalyzer {
		t.Fatalf("default product should be fdd_analyzer, got %v", gotProducts)
	}

	_, body := do(t, r, http.MethodGet, "/verify-session?session_id=cs_test_good_0001&product=decision_engine", nil)
	if gotProducts[0] != domain.ProductDecisionEngine || body["email"] != "buyer@example.com" {
		t.Fatalf("product query not forwarded: %v %v", gotProducts, body)
	}
}

func TestCompleteSession(t *testing.T) {
	tokens := stubTokens{consume: func(_ context.Context, token string) (domain.ConsumeResult, error) {
		switch token {
		case "cs_test_unknown_1":
			return domain.ConsumeResult{}, services.ErrInvalidSession
		case "cs_test_unpaid_01":
			return domain.ConsumeResult{}, services.ErrPaymentNotVerified
		case "cs_test_down_0001":
			return domain.ConsumeResult{}, fmt.Errorf("%w: timeout", services.ErrProviderUnavailable)
		case "cs_test_used_0001":
			return domain.ConsumeResult{AlreadyConsumed: true}, nil
		}
		return domain.ConsumeResult{Written: true}, nil
	}}
	r := newTestRouter(handlersWith(func(h *Handlers) { h.tokenSvc = tokens }))

	cases := []struct {
		body   any
		status int
		msg    any
	}{
		{map[string]string{}, http.StatusBadRequest, "Missing token"},
		{"{not json", http.StatusBadRequest, "Missing token"},
		{map[string]string{"token": "cs_test_unknown_1"}, http.StatusForbidden, "Invalid session"},
		{map[string]string{"token": "cs_test_unpaid_01"}, http.StatusForbidden, "Invalid session"},
		{map[string]string{"token": "cs_test_down_0001"}, http.StatusInternalServerError, "Failed to complete session"},
		{map[string]string{"token": "cs_test_used_0001"}, http.StatusOK, nil},
		{map[string]string{"token": "cs_test_good_0001"}, http.StatusOK, nil},
	}
	for _, tc := range cases {
		w, body := do(t, r, http.MethodPost, "/complete-session", tc.body)
		if w.Code != tc.status || body["error"] != tc.msg {
			t.Fatalf("%v: got %d %v", tc.body, w.Code, body)
		}
		if tc.status == http.StatusOK && body["success"] != true {
			t.Fatalf("%v: expected success:true, got %v", tc.body, body)
		}
	}
}

// ---------- analyze ----------

func TestAnalyze_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{services.ErrMissingFields, http.StatusBadRequest, "Missing required fields"},
		{services.ErrTextTooShort, http.StatusBadRequest, "Text too short for analysis"},
		{services.ErrPaymentNotVerified, http.StatusForbidden, "Payment not verified"},
		{services.ErrAlreadyAnalyzed, http.StatusForbidden, "Analysis already completed"},
		{services.ErrInvalidSession, http.StatusForbidden, "Invalid session"},
	}
	for _, tc := range cases {
		err := tc.err
		r := newTestRouter(handlersWith(func(h *Handlers) {
			h.analysisSvc = stubAnalysis{analyze: func(context.Context, domain.AnalysisRequest) (services.AnalysisResult, error) {
				return services.AnalysisResult{}, err
			}}
		}))
		w, body := do(t, r, http.MethodPost, "/analyze", map[string]any{"token": "cs_test_x", "itemNum": 19, "text": "t", "prompt": "p"})
		if w.Code != tc.status || body["error"] != tc.msg {
			t.Fatalf("%v: got %d %v", tc.err, w.Code, body)
		}
		if _, has := body["findings"]; has {
			t.Fatalf("%v: rejection must not carry findings", tc.err)
		}
	}
}

func TestAnalyze_FailureCarriesFallbackFinding(t *testing.T) {
	r := newTestRouter(handlersWith(func(h *Handlers) {
		h.analysisSvc = stubAnalysis{analyze: func(context.Context, domain.AnalysisRequest) (services.AnalysisResult, error) {
			return services.AnalysisResult{Findings: []domain.Finding{services.FallbackServiceIssue}, Fallback: true},
				fmt.Errorf("%w: 529", services.ErrAnalysisFailed)
		}}
	}))
	w, body := do(t, r, http.MethodPost, "/analyze", map[string]any{"token": "cs_test_x", "itemNum": 7, "text": "t", "prompt": "p"})
	if w.Code != http.StatusInternalServerError || body["error"] != "Analysis failed" {
		t.Fatalf("got %d %v", w.Code, body)
	}
	findings, _ := body["findings"].([]any)
	if len(findings) != 1 {
		t.Fatalf("expected one fallback finding, got %v", body["findings"])
	}
	if f := findings[0].(map[string]any); f["severity"] != "yellow" || f["question"] != services.FallbackServiceIssue.Question {
		t.Fatalf("unexpected fallback %v", f)
	}
}

func TestAnalyze_SuccessAndItemNumForms(t *testing.T) {
	var got domain.AnalysisRequest
	r := newTestRouter(handlersWith(func(h *Handlers) {
		h.analysisSvc = stubAnalysis{analyze: func(_ context.Context, req domain.AnalysisRequest) (services.AnalysisResult, error) {
			got = req
			if req.ItemNum == 0 {
				return services.AnalysisResult{}, services.ErrMissingFields
			}
			return services.AnalysisResult{Findings: []domain.Finding{
				{Severity: domain.SeverityRed, Finding: "a", Question: "b"},
				{Severity: domain.SeverityGreen, Finding: "c", Question: "d"},
			}}, nil
		}}
	}))

	w, body := do(t, r, http.MethodPost, "/analyze", `{"token":" cs_test_x ","itemNum":"19","text":"t","prompt":"p"}`)
	if w.Code != http.StatusOK || len(body["findings"].([]any)) != 2 {
		t.Fatalf("string itemNum: %d %v", w.Code, body)
	}
	if got.ItemNum != 19 || got.Token != "cs_test_x" {
		t.Fatalf("request not forwarded: %+v", got)
	}

	if w, _ := do(t, r, http.MethodPost, "/analyze", `{"token":"cs_test_x","itemNum":21,"text":"t","prompt":"p"}`); w.Code != http.StatusOK || got.ItemNum != 21 {
		t.Fatalf("numeric itemNum: %d %+v", w.Code, got)
	}

	for _, raw := range []string{
		`{"token":"cs_test_x","itemNum":"abc","text":"t","prompt":"p"}`,
		`{"token":"cs_test_x","itemNum":null,"text":"t","prompt":"p"}`,
		`{"token":"cs_test_x","text":"t","prompt":"p"}`,
	} {
		if w, body := do(t, r, http.MethodPost, "/analyze", raw); w.Code != http.StatusBadRequest || body["error"] != "Missing required fields" {
			t.Fatalf("%s: got %d %v", raw, w.Code, body)
		}
	}

	if w, _ := do(t, r, http.MethodPost, "/analyze", "{oops"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid JSON should be 400, got %d", w.Code)
	}
}

// ---------- negotiate ----------

func TestNegotiate(t *testing.T) {
	var respondErr error
	var got services.NegotiationRequest
	r := newTestRouter(handlersWith(func(h *Handlers) {
		h.negSvc = stubNegotiation{respond: func(_ context.Context, req services.NegotiationRequest) (services.NegotiationReply, error) {
			got = req
			if respondErr != nil {
				return services.NegotiationReply{}, respondErr
			}
			return services.NegotiationReply{Reply: "Our fees are standard.", Scenario: req.Scenario}, nil
		}}
	}))
	payload := map[string]any{
		"scenario":    "fees",
		"userMessage": "Cap the tech fee?",
		"history":     []map[string]string{{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}},
	}

	w, body := do(t, r, http.MethodPost, "/negotiate", payload)
	if w.Code != http.StatusOK || body["reply"] != "Our fees are standard." || body["scenario"] != "fees" {
		t.Fatalf("success: %d %v", w.Code, body)
	}
	if len(got.History) != 2 || got.History[1].Role != "assistant" || got.UserMessage != "Cap the tech fee?" {
		t.Fatalf("request not forwarded: %+v", got)
	}

	cases := []struct {
		err    error
		status int
		msg    string
		reply  any
	}{
		{services.ErrMissingFields, http.StatusBadRequest, "Missing required fields", nil},
		{services.ErrPaymentNotVerified, http.StatusForbidden, "Payment not verified", nil},
		{services.ErrModelUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable", nil},
		{fmt.Errorf("%w: overloaded", services.ErrSimulationFailed), http.StatusInternalServerError, "Simulation error", services.FallbackReply},
	}
	for _, tc := range cases {
		respondErr = tc.err
		w, body := do(t, r, http.MethodPost, "/negotiate", payload)
		if w.Code != tc.status || body["error"] != tc.msg || body["reply"] != tc.reply {
			t.Fatalf("%v: got %d %v", tc.err, w.Code, body)
		}
	}

	// 503 carries an explicit null reply
	respondErr = services.ErrModelUnavailable
	_, body = do(t, r, http.MethodPost, "/negotiate", payload)
	if v, has := body["reply"]; !has || v != nil {
		t.Fatalf("expected reply:null, got %v", body)
	}
}

// ---------- subscribe ----------

func TestSubscribe(t *testing.T) {
	var subErr error
	var got services.SubscribeRequest
	r := newTestRouter(handlersWith(func(h *Handlers) {
		h.subSvc = stubSubscription{subscribe: func(_ context.Context, req services.SubscribeRequest) error {
			got = req
			return subErr
		}}
	}))
	payload := map[string]string{"email": " a@b.co ", "source": "calculator", "firstName": "Ann"}

	w, body := do(t, r, http.MethodPost, "/subscribe", payload)
	if w.Code != http.StatusOK || body["success"] != true || body["message"] != "Subscribed successfully" {
		t.Fatalf("success: %d %v", w.Code, body)
	}
	if got.Email != "a@b.co" || got.Source != "calculator" || got.FirstName != "Ann" {
		t.Fatalf("request not forwarded: %+v", got)
	}

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{services.ErrInvalidEmail, http.StatusBadRequest, "Valid email required"},
		{services.ErrMailingNotConfigured, http.StatusServiceUnavailable, "Email service not configured"},
		{fmt.Errorf("%w: 422", services.ErrSubscriptionRejected), http.StatusInternalServerError, "Subscription failed"},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError, "Internal error"},
	}
	for _, tc := range cases {
		subErr = tc.err
		w, body := do(t, r, http.MethodPost, "/subscribe", payload)
		if w.Code != tc.status || body["error"] != tc.msg {
			t.Fatalf("%v: got %d %v", tc.err, w.Code, body)
		}
	}
}

// End to end against the real services: a token analyzes once, then the
// same token is rejected, and a bad email never reaches the provider.
func TestEndToEnd_WithServices(t *testing.T) {
	gw := &memGateway{tok: domain.PurchaseToken{
		ID: "cs_test_e2e_000001", Paid: true, Product: domain.ProductFDDAnalyzer, PaymentIntentID: "pi_1",
	}}
	tokens := &services.TokenService{Payments: gw}
	analysis := &services.AnalysisService{
		Tokens:  tokens,
		Model:   modelFunc(func() string { return `[{"severity":"red","finding":"x","question":"y"},{"severity":"green","finding":"z","question":"w"}]` }),
		Consume: true,
	}
	sub := &services.SubscriptionService{List: unconfiguredList{}}
	h := New(stubCheckout{}, tokens, analysis, stubNegotiation{}, sub)
	r := newTestRouter(h)

	req := map[string]any{
		"token":   gw.tok.ID,
		"itemNum": 19,
		"text":    string(bytes.Repeat([]byte("Item 19 revenue data. "), 100)),
		"prompt":  "Analyze for financial misrepresentation",
	}
	w, body := do(t, r, http.MethodPost, "/analyze", req)
	if w.Code != http.StatusOK {
		t.Fatalf("first analyze: %d %v", w.Code, body)
	}
	if n := len(body["findings"].([]any)); n < 1 || n > 8 {
		t.Fatalf("findings count %d out of range", n)
	}

	w, body = do(t, r, http.MethodPost, "/analyze", req)
	if w.Code != http.StatusForbidden || body["error"] != "Analysis already completed" {
		t.Fatalf("second analyze: %d %v", w.Code, body)
	}

	w, body = do(t, r, http.MethodPost, "/subscribe", map[string]string{"email": "not-an-email", "source": "calculator"})
	if w.Code != http.StatusBadRequest || body["error"] != "Valid email required" {
		t.Fatalf("subscribe: %d %v", w.Code, body)
	}
}
