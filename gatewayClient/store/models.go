// Package store contains the GORM models of the local bridge journal.
//
// Database Structure (database file: journal.db):
//
//	<home>/databases/
//	└── journal.db
//	    └── bridge_transactions
package store

import (
	"gorm.io/gorm"
)

// Journal statuses.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// BridgeTransaction records one gateway transaction this node submitted.
// BurnCount is only set for burns; the unique index keeps a second local
// burn from claiming the same burn log of a gateway.
type BridgeTransaction struct {
	gorm.Model
	Kind      string  `gorm:"index;not null"`                             // "initialize", "init_account", "mint", "burn"
	Gateway   string  `gorm:"not null;uniqueIndex:idx_gateway_burn_count"` // gateway program id (base58)
	BurnCount *uint64 `gorm:"uniqueIndex:idx_gateway_burn_count"`
	Selector  string
	Amount    uint64
	Recipient string // hex, burns only
	Digest    string `gorm:"index"` // hex mint message digest, mints only
	Signature string `gorm:"index"` // base58 transaction signature once submitted
	Status    string `gorm:"index;default:'pending'"`
	ErrorMsg  string `gorm:"type:text"`
}
