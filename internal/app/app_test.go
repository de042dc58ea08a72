package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/config"
	"github.com/tbourn/fdd-analyzer-backend/internal/repo"
	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

func testConfig() config.Config {
	return config.Config{
		Stripe: config.StripeConfig{Timeout: time.Second, SiteURL: "https://site.test"},
		LLM:    config.LLMConfig{Timeout: time.Second, Model: "m"},
		Kit:    config.KitConfig{Timeout: time.Second, APIURL: "http://127.0.0.1:1"},
		Ledger: config.LedgerConfig{Driver: "none"},
	}
}

func TestOpenLedger_None(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		l, closer, err := openLedger(context.Background(), config.LedgerConfig{Driver: driver})
		if err != nil || closer != nil {
			t.Fatalf("driver %q: err=%v closer=%v", driver, err, closer != nil)
		}
		if _, ok := l.(services.NoopLedger); !ok {
			t.Fatalf("driver %q: got %T", driver, l)
		}
	}
}

func TestOpenLedger_SQLiteClaimsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, closer, err := openLedger(context.Background(), config.LedgerConfig{Driver: "sqlite", DBPath: path})
	if err != nil {
		t.Fatalf("openLedger: %v", err)
	}
	t.Cleanup(func() { _ = closer() })

	ctx := context.Background()
	if err := l.Claim(ctx, "cs_test_a1b2c3d4e5"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := l.Claim(ctx, "cs_test_a1b2c3d4e5"); !errors.Is(err, repo.ErrAlreadyClaimed) {
		t.Fatalf("second claim err = %v; want ErrAlreadyClaimed", err)
	}
}

func TestOpenLedger_SQLiteMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "ledger.db")
	if _, _, err := openLedger(context.Background(), config.LedgerConfig{Driver: "sqlite", DBPath: path}); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestOpenLedger_RedisUnreachable(t *testing.T) {
	// port 1 refuses immediately
	_, _, err := openLedger(context.Background(), config.LedgerConfig{
		Driver:    "redis",
		RedisAddr: "127.0.0.1:1",
		TTL:       time.Hour,
	})
	if err == nil || !strings.Contains(err.Error(), "ping ledger redis") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenLedger_UnknownDriver(t *testing.T) {
	if _, _, err := openLedger(context.Background(), config.LedgerConfig{Driver: "etcd"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_WiresHandlersWithoutCredentials(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.Tokens == nil || a.Handlers == nil {
		t.Fatalf("incomplete wiring: %+v", a)
	}

	// no form id configured: subscribe answers 503 without touching the network
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/subscribe", a.Handlers.Subscribe)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(`{"email":"a@b.co"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("subscribe = %d %s", w.Code, w.Body.String())
	}

	// malformed token never reaches the provider
	r.GET("/verify-session", a.Handlers.VerifySession)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify-session?session_id=short", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("verify-session = %d %s", w.Code, w.Body.String())
	}
}

func TestNew_SQLiteLedgerClosedOnClose(t *testing.T) {
	cfg := testConfig()
	cfg.Ledger = config.LedgerConfig{Driver: "sqlite", DBPath: filepath.Join(t.TempDir(), "l.db")}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(a.closers) != 1 {
		t.Fatalf("closers = %d; want 1", len(a.closers))
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
