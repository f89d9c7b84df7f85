package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/gitlab-attendant/internal/domain/model"
)

// ActionJournal defines the driven port for the append-only audit trail of
// dispatched actions.
type ActionJournal interface {
	// Record appends an action. The stored ID is assigned by the journal.
	Record(ctx context.Context, action model.Action) error
	// ListSince returns actions performed at or after since, oldest first.
	ListSince(ctx context.Context, since time.Time) ([]model.Action, error)
}
