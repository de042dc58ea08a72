package domain

import "time"

// TokenClaim is an exclusive-write marker keyed by purchase token. A row
// exists while a token is being (or has been) spent through the analysis
// path; the unique index on Token is what serializes concurrent requests.
type TokenClaim struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Token     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_token_claim"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
}

// TableName implements the GORM tabler interface.
func (TokenClaim) TableName() string { return "token_claims" }
