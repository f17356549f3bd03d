// Package ledger records completed operations. Records are committed to the
// entity store together with the balance writes they describe, then handed to
// optional sinks (journal database, event bus) off the request path.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/google/uuid"
)

const queueSize = 1024

type Store interface {
	Commit(userID string, changes []models.BalanceChange, tx models.Transaction) error
	TransactionsForUser(userID string) []models.Transaction
}

// Sink receives every committed record. A failing sink never affects the
// operation that produced the record.
type Sink interface {
	Name() string
	SaveTransaction(ctx context.Context, tx models.Transaction) error
}

type Ledger struct {
	store       Store
	logger      *slog.Logger
	sinks       []Sink
	sinkTimeout time.Duration
	now         func() time.Time

	mu     sync.RWMutex
	queue  chan models.Transaction
	closed bool
	wg     sync.WaitGroup
}

func New(store Store, logger *slog.Logger, sinkTimeout time.Duration, sinks ...Sink) *Ledger {
	l := &Ledger{
		store:       store,
		logger:      logger,
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
		now:         time.Now,
	}

	if len(sinks) > 0 {
		l.queue = make(chan models.Transaction, queueSize)
		l.wg.Add(1)
		go l.forward()
	}

	return l
}

// NewID returns a transaction id whose lexical order follows creation order.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "tx-" + id.String(), nil
}

// Post stamps tx with an id, owner and date, then commits it with changes as
// one unit. The committed record is returned.
func (l *Ledger) Post(ctx context.Context, userID string, changes []models.BalanceChange, tx models.Transaction) (models.Transaction, error) {
	const op = "ledger.Post"

	id, err := NewID()
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	tx.ID = id
	tx.UserID = userID
	tx.Date = l.now().UTC()

	if err := l.store.Commit(userID, changes, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	l.logger.Debug("transaction committed",
		slog.String("id", tx.ID),
		slog.String("user_id", userID),
		slog.String("type", string(tx.Type)),
		slog.String("amount", tx.Amount.StringFixed(2)),
	)

	l.enqueue(tx)

	return tx, nil
}

// History returns the user's records newest-first.
func (l *Ledger) History(_ context.Context, userID string) []models.Transaction {
	return l.store.TransactionsForUser(userID)
}

// Close stops accepting records and waits until queued ones reach the sinks.
func (l *Ledger) Close() {
	l.mu.Lock()
	if !l.closed && l.queue != nil {
		close(l.queue)
	}
	l.closed = true
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *Ledger) enqueue(tx models.Transaction) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.queue == nil || l.closed {
		return
	}
	select {
	case l.queue <- tx:
	default:
		l.logger.Warn("sink queue full, record not mirrored", slog.String("id", tx.ID))
	}
}

func (l *Ledger) forward() {
	defer l.wg.Done()

	for tx := range l.queue {
		for _, sink := range l.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), l.sinkTimeout)
			if err := sink.SaveTransaction(ctx, tx); err != nil {
				l.logger.Error("Failed to mirror transaction",
					slog.String("sink", sink.Name()),
					slog.String("id", tx.ID),
					"error", err,
				)
			}
			cancel()
		}
	}
}
