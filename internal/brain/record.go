package brain

import (
	"context"
	"time"

	"github.com/rcliao/jason-client/internal/slots"
)

// Outcome is the state a call ended in.
type Outcome string

const (
	OutcomeSlotsMerging  Outcome = "slots_merging"
	OutcomeEncodeFailed  Outcome = "encode_failed"
	OutcomeRequesting    Outcome = "requesting"
	OutcomeNetworkFailed Outcome = "network_failed"
	OutcomeParsing       Outcome = "parsing"
	OutcomeParseFailed   Outcome = "parse_failed"
	OutcomeNormalized    Outcome = "normalized"
)

// Terminal reports whether o is a state a finished call can end in.
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeEncodeFailed, OutcomeNetworkFailed, OutcomeParseFailed, OutcomeNormalized:
		return true
	}
	return false
}

// CallRecord summarizes one call. It carries no message content and no
// coordinates.
type CallRecord struct {
	RequestID      string
	Outcome        Outcome
	OK             bool
	Status         int // HTTP status; 0 when no response arrived
	Error          string
	DryRun         bool
	LocationSource slots.Source
	Started        time.Time
	Latency        time.Duration
}

// Recorder persists call records.
type Recorder interface {
	Record(ctx context.Context, rec CallRecord) error
}
