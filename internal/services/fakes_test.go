package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/llm"
	"github.com/tbourn/fdd-analyzer-backend/internal/mailing"
	"github.com/tbourn/fdd-analyzer-backend/internal/payments"
	"github.com/tbourn/fdd-analyzer-backend/internal/repo"
)

// ---------- payment gateway ----------

// fakeGateway holds sessions in memory and mimics provider semantics:
// MarkConsumed flips the consumed marker of the session owning the intent.
type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*domain.PurchaseToken

	getErr  error
	markErr error

	gets     int
	marks    int
	markedAt []time.Time

	// barrier, when set, holds the first n GetSession calls until all n
	// have arrived, forcing concurrent verifies to overlap.
	barrier *barrier
}

type barrier struct {
	mu      sync.Mutex
	n       int
	arrived int
	release chan struct{}
}

func newBarrier(n int) *barrier { return &barrier{n: n, release: make(chan struct{})} }

func (b *barrier) wait() {
	b.mu.Lock()
	if b.arrived >= b.n {
		b.mu.Unlock()
		return
	}
	b.arrived++
	if b.arrived == b.n {
		close(b.release)
	}
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-time.After(2 * time.Second):
	}
}

func newFakeGateway(sessions ...*domain.PurchaseToken) *fakeGateway {
	g := &fakeGateway{sessions: map[string]*domain.PurchaseToken{}}
	for _, s := range sessions {
		g.sessions[s.ID] = s
	}
	return g
}

// GetSession snapshots the session before waiting on the barrier, so
// overlapping callers all observe the state from before either consumes.
func (g *fakeGateway) GetSession(ctx context.Context, id string) (*domain.PurchaseToken, error) {
	tok, err := g.snapshot(id)
	if g.barrier != nil {
		g.barrier.wait()
	}
	return tok, err
}

func (g *fakeGateway) snapshot(id string) (*domain.PurchaseToken, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gets++
	if g.getErr != nil {
		return nil, g.getErr
	}
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get checkout session: %w: No such checkout.session: %s", payments.ErrSessionNotFound, id)
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) MarkConsumed(ctx context.Context, piID string, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.markErr != nil {
		return g.markErr
	}
	g.marks++
	g.markedAt = append(g.markedAt, at)
	for _, s := range g.sessions {
		if s.PaymentIntentID == piID {
			s.Consumed = true
			t := at
			s.ConsumedAt = &t
		}
	}
	return nil
}

func (g *fakeGateway) counts() (gets, marks int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gets, g.marks
}

func paidToken(id string, product domain.Product) *domain.PurchaseToken {
	return &domain.PurchaseToken{
		ID:              id,
		Paid:            true,
		Product:         product,
		Email:           "buyer@example.com",
		PaymentIntentID: "pi_" + id,
	}
}

// ---------- model ----------

type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []llm.Request
}

func (m *fakeModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *fakeModel) last() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// ---------- mailing list ----------

type fakeList struct {
	configured bool
	canTag     bool
	id         string
	formErr    error
	tagErr     error

	formCalls []mailing.Subscriber
	tagCalls  []string
}

func (l *fakeList) Configured() bool { return l.configured }
func (l *fakeList) CanTag() bool     { return l.canTag }

func (l *fakeList) SubscribeToForm(ctx context.Context, s mailing.Subscriber) (string, error) {
	l.formCalls = append(l.formCalls, s)
	return l.id, l.formErr
}

func (l *fakeList) Tag(ctx context.Context, tagID, email string) error {
	l.tagCalls = append(l.tagCalls, tagID)
	return l.tagErr
}

// ---------- ledger ----------

func newSQLiteLedger(t *testing.T) *repo.SQLiteLedger {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_ledger_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &repo.SQLiteLedger{DB: db}
}

// failingLedger fails every call with err.
type failingLedger struct{ err error }

func (l failingLedger) Claim(context.Context, string) error   { return l.err }
func (l failingLedger) Release(context.Context, string) error { return l.err }
