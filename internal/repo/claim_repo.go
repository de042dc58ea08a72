package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
)

var (
	// ErrAlreadyClaimed indicates another request holds (or already spent)
	// the claim for this token.
	ErrAlreadyClaimed = errors.New("token already claimed")

	// ErrNotFound is returned when no claim exists for a token.
	ErrNotFound = gorm.ErrRecordNotFound
)

// CreateClaim inserts a claim row and returns ErrAlreadyClaimed on unique
// violation.
func CreateClaim(ctx context.Context, db *gorm.DB, token string) (*domain.TokenClaim, error) {
	rec := &domain.TokenClaim{
		ID:        uuid.NewString(),
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}
	return rec, nil
}

// GetClaim returns the claim for token or ErrNotFound.
func GetClaim(ctx context.Context, db *gorm.DB, token string) (*domain.TokenClaim, error) {
	var rec domain.TokenClaim
	err := db.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// DeleteClaim removes the claim for token. Missing rows are not an error.
func DeleteClaim(ctx context.Context, db *gorm.DB, token string) error {
	return db.WithContext(ctx).Where("token = ?", token).Delete(&domain.TokenClaim{}).Error
}

// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	low := strings.ToLower(err.Error())
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// SQLiteLedger is a TokenLedger over the token_claims table.
type SQLiteLedger struct {
	DB *gorm.DB
}

// Claim reserves token; a second Claim for the same token fails with
// ErrAlreadyClaimed until Release is called.
func (l *SQLiteLedger) Claim(ctx context.Context, token string) error {
	_, err := CreateClaim(ctx, l.DB, token)
	return err
}

// Release drops the reservation so a failed attempt can be retried.
func (l *SQLiteLedger) Release(ctx context.Context, token string) error {
	return DeleteClaim(ctx, l.DB, token)
}
