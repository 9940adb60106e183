// Package game holds the round lifecycle state machine, the submission
// coordinator and the result aggregation views. Storage and scoring are
// consumed through narrow interfaces; the bot transport lives elsewhere.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle owns the pending -> active -> finished state machine.
// At most one game is active at any instant; Activate and Stop run inside
// a single-writer section so concurrent admin actions cannot leave two
// games active or lose the queue order.
type Lifecycle struct {
	mu   sync.Mutex
	repo Repository
	log  *zap.Logger
}

func NewLifecycle(repo Repository, log *zap.Logger) *Lifecycle {
	return &Lifecycle{repo: repo, log: log}
}

// CreateGame allocates a new pending game and returns its identifier.
// Other games are untouched.
func (l *Lifecycle) CreateGame(ctx context.Context, prompt, imageRef string) (string, error) {
	g := Game{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		ImageRef:  imageRef,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.CreateGame(ctx, g); err != nil {
		return "", err
	}
	l.log.Info("game created", zap.String("game_id", g.ID))
	return g.ID, nil
}

// ActivateNext finishes the currently active game, if any, and promotes the
// oldest pending game in one observable step. It reports false when no game
// is pending, leaving any active game untouched.
func (l *Lifecycle) ActivateNext(ctx context.Context) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, ok, err := l.repo.OldestPendingGame(ctx)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	current, active, err := l.repo.CurrentActiveGame(ctx)
	if err != nil {
		return "", false, err
	}
	if !active {
		current = ""
	}
	// The finish and the activation commit together, so submitters
	// re-reading game status never see a moment with no active game
	// between two rounds.
	if err := l.repo.SwapActive(ctx, current, next); err != nil {
		return "", false, err
	}
	if active {
		l.log.Info("game finished", zap.String("game_id", current))
	}
	l.log.Info("game activated", zap.String("game_id", next))
	return next, true, nil
}

// StopActive finishes the active game and returns its identifier. Calling
// it with no active game is a no-op, not an error.
func (l *Lifecycle) StopActive(ctx context.Context) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, active, err := l.repo.CurrentActiveGame(ctx)
	if err != nil {
		return "", false, err
	}
	if !active {
		return "", false, nil
	}
	if err := l.repo.SetGameStatus(ctx, current, StatusFinished); err != nil {
		return "", false, err
	}
	l.log.Info("game finished", zap.String("game_id", current))
	return current, true, nil
}

func (l *Lifecycle) CurrentActive(ctx context.Context) (string, bool, error) {
	return l.repo.CurrentActiveGame(ctx)
}

func (l *Lifecycle) StatusOf(ctx context.Context, gameID string) (Status, bool, error) {
	return l.repo.GetGameStatus(ctx, gameID)
}
