package balances

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/loomledger/loomledger/internal/tenant"
)

// Enqueuer submits balance refresh work to the background queue.
type Enqueuer interface {
	EnqueueBalanceRefresh(ctx context.Context, companyID uuid.UUID) (*asynq.TaskInfo, error)
}

// PostingNotifier reacts to journal postings: it invalidates the
// company's cached balances immediately and queues a refresh of the
// denormalized balance columns. Both actions are best-effort; a
// posting is correct without them because balances are always
// replayable from the line history.
type PostingNotifier struct {
	logger *slog.Logger
	cache  *Cache
	queue  Enqueuer
}

func NewPostingNotifier(logger *slog.Logger, cache *Cache, queue Enqueuer) *PostingNotifier {
	return &PostingNotifier{logger: logger, cache: cache, queue: queue}
}

// JournalPosted implements the posting notifier contract.
func (n *PostingNotifier) JournalPosted(ctx context.Context, scope tenant.Scope) {
	if n == nil {
		return
	}
	if err := n.cache.Bump(ctx, scope); err != nil {
		n.logger.Warn("bump balance cache", slog.Any("error", err))
	}
	if n.queue != nil {
		if _, err := n.queue.EnqueueBalanceRefresh(ctx, scope.CompanyID); err != nil {
			n.logger.Warn("enqueue balance refresh", slog.Any("error", err))
		}
	}
}
