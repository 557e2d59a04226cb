package db

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pushchain/svm-gateway/gatewayClient/chains/svm"
	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
	"github.com/pushchain/svm-gateway/gatewayClient/store"
)

// ErrBurnAlreadyRecorded is returned when a burn count of a gateway is
// already held by a pending or submitted burn.
var ErrBurnAlreadyRecorded = errors.New("burn count already recorded for gateway")

// Journal records gateway submissions in the database. It implements
// svm.Journal.
type Journal struct {
	db *DB
}

var _ svm.Journal = (*Journal)(nil)

// NewJournal returns a journal writing to d.
func NewJournal(d *DB) *Journal {
	return &Journal{db: d}
}

// Begin inserts a pending row for s. A burn whose count already has a
// pending or submitted row is refused; a failed row for the same count is
// replaced so the burn can be resubmitted.
func (j *Journal) Begin(ctx context.Context, s svm.Submission) (uint, error) {
	row := store.BridgeTransaction{
		Kind:      s.Kind,
		Gateway:   s.Gateway,
		Selector:  s.Selector,
		Amount:    s.Amount,
		Recipient: s.Recipient,
		Digest:    s.Digest,
		Status:    store.StatusPending,
	}
	if s.Kind == svm.KindBurn {
		count := s.BurnCount
		row.BurnCount = &count
	}

	err := j.db.client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.BurnCount != nil {
			res := tx.Unscoped().
				Where("gateway = ? AND burn_count = ? AND status = ?", row.Gateway, *row.BurnCount, store.StatusFailed).
				Delete(&store.BridgeTransaction{})
			if res.Error != nil {
				return errors.Wrap(res.Error, "failed to clear failed burn")
			}
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, gwerrors.NewDatabaseError("burn count already recorded", ErrBurnAlreadyRecorded).
			WithContext("gateway", s.Gateway).
			WithContext("burn_count", s.BurnCount)
	}
	if err != nil {
		return 0, gwerrors.NewDatabaseError("failed to record submission", err)
	}
	return row.ID, nil
}

// Complete marks row id as submitted with signature, or failed with sendErr.
func (j *Journal) Complete(ctx context.Context, id uint, signature string, sendErr error) error {
	updates := map[string]any{"status": store.StatusSubmitted, "signature": signature}
	if sendErr != nil {
		updates = map[string]any{"status": store.StatusFailed, "error_msg": sendErr.Error()}
	}
	res := j.db.client.WithContext(ctx).Model(&store.BridgeTransaction{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return gwerrors.NewDatabaseError("failed to update submission", res.Error)
	}
	if res.RowsAffected == 0 {
		return gwerrors.NewDatabaseError("submission not found", gorm.ErrRecordNotFound).WithContext("id", id)
	}
	return nil
}

// Recent returns up to limit journal rows, newest first. An empty kind
// matches every kind.
func (j *Journal) Recent(ctx context.Context, kind string, limit int) ([]store.BridgeTransaction, error) {
	q := j.db.client.WithContext(ctx).Order("id DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var rows []store.BridgeTransaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list journal")
	}
	return rows, nil
}

// BurnByCount returns the journal row holding count for gateway.
func (j *Journal) BurnByCount(ctx context.Context, gateway string, count uint64) (*store.BridgeTransaction, error) {
	var row store.BridgeTransaction
	err := j.db.client.WithContext(ctx).
		Where("gateway = ? AND burn_count = ?", gateway, count).
		First(&row).Error
	if err != nil {
		return nil, errors.Wrapf(err, "no burn %d for gateway %s", count, gateway)
	}
	return &row, nil
}

// CheckBurnAvailable refuses count for gateway when a pending or submitted
// burn already holds it. A failed burn leaves the count free.
func (j *Journal) CheckBurnAvailable(ctx context.Context, gateway string, count uint64) error {
	row, err := j.BurnByCount(ctx, gateway, count)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return gwerrors.NewDatabaseError("failed to look up burn", err)
	}
	if row.Status == store.StatusFailed {
		return nil
	}
	return gwerrors.NewDatabaseError("burn count already recorded", ErrBurnAlreadyRecorded).
		WithContext("gateway", gateway).
		WithContext("burn_count", count).
		WithContext("status", row.Status)
}
