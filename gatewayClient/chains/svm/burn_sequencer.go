package svm

import (
	"math"

	"github.com/gagliardetto/solana-go"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// BurnRecord identifies the burn log slot a burn will claim.
type BurnRecord struct {
	Count      uint64
	LogAddress solana.PublicKey
}

// NextBurnCount returns the count the next burn must use. The gateway state's
// BurnCount is the number of burns already logged, so the next slot is one
// past it. This is the only place the increment happens; LogSeed and
// BurnSequencer.Record take the result as is.
func NextBurnCount(state GatewayState) (uint64, error) {
	if state.BurnCount == math.MaxUint64 {
		return 0, gwerrors.NewValidationError("burn count overflow")
	}
	return state.BurnCount + 1, nil
}

// BurnSequencer maps gateway state to the burn log a new burn writes.
//
// Two callers sequencing from the same state get the same record and will
// race for the same log account; submissions must be serialized per gateway.
type BurnSequencer struct {
	deriver *Deriver
}

// NewBurnSequencer returns a sequencer deriving under deriver's gateway program.
func NewBurnSequencer(deriver *Deriver) *BurnSequencer {
	return &BurnSequencer{deriver: deriver}
}

// Next returns the record for the burn that follows state.
func (s *BurnSequencer) Next(state GatewayState) (BurnRecord, error) {
	count, err := NextBurnCount(state)
	if err != nil {
		return BurnRecord{}, err
	}
	return s.Record(count)
}

// Record returns the record for an already sequenced count.
func (s *BurnSequencer) Record(count uint64) (BurnRecord, error) {
	pa, err := s.deriver.BurnLog(count)
	if err != nil {
		return BurnRecord{}, err
	}
	return BurnRecord{Count: count, LogAddress: pa.Address}, nil
}
