package service

import (
	"context"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
)

// RecordingService defines the interface for recording activity events in
// the document store.
type RecordingService interface {
	RecordEvent(ctx context.Context, event *activity.Event) error
}
