package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CoordinatorConfig tunes submission gating.
type CoordinatorConfig struct {
	// MaxAttempts is the attempt budget per (game, user).
	MaxAttempts int
	// BlockAfterWin rejects further guesses from a user who already
	// scored 100 in the game, even with budget left.
	BlockAfterWin bool
	// ScoreTimeout bounds one scorer call. Zero means no bound beyond
	// the caller's context.
	ScoreTimeout time.Duration
}

// Coordinator gates and records scoring attempts. The budget check and the
// result insert for one (game, user) key run under a per-key mutex, so two
// near-simultaneous guesses from the same user can never both slip past the
// budget. Different keys never contend. Arrival ordering for one user's
// guesses is the caller's job; the transport feeds each user's messages in
// sequence.
type Coordinator struct {
	repo   Repository
	scorer Scorer
	cfg    CoordinatorConfig
	log    *zap.Logger

	mu    sync.Mutex
	locks map[submissionKey]*sync.Mutex
}

type submissionKey struct {
	gameID string
	userID int64
}

func NewCoordinator(repo Repository, scorer Scorer, cfg CoordinatorConfig, log *zap.Logger) *Coordinator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Coordinator{
		repo:   repo,
		scorer: scorer,
		cfg:    cfg,
		log:    log,
		locks:  make(map[submissionKey]*sync.Mutex),
	}
}

// keyLock returns the mutex for one (game, user) pair. Entries are kept for
// the life of the process; the map is bounded by participants per round.
func (c *Coordinator) keyLock(key submissionKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

// Submit records one scored guess. Rejections (wrong status, exhausted
// budget, already won) come back as a Submission with a Reason; an error
// means a collaborator failed and nothing was persisted.
func (c *Coordinator) Submit(ctx context.Context, gameID string, userID int64, displayName, text string) (Submission, error) {
	lock := c.keyLock(submissionKey{gameID: gameID, userID: userID})
	lock.Lock()
	defer lock.Unlock()

	// Re-read the game under the lock: the round may have ended between
	// the user opening it and submitting.
	g, found, err := c.repo.GetGame(ctx, gameID)
	if err != nil {
		return Submission{}, fmt.Errorf("load game: %w", err)
	}
	if !found {
		return Submission{Reason: RejectGameNotFound}, nil
	}
	if g.Status != StatusActive {
		return Submission{Reason: RejectGameNotActive}, nil
	}

	if c.cfg.BlockAfterWin {
		won, err := c.repo.HasWinningResult(ctx, gameID, userID)
		if err != nil {
			return Submission{}, fmt.Errorf("check winning result: %w", err)
		}
		if won {
			return Submission{Reason: RejectAlreadyWon}, nil
		}
	}

	attempts, err := c.repo.CountResults(ctx, gameID, userID)
	if err != nil {
		return Submission{}, fmt.Errorf("count attempts: %w", err)
	}
	if attempts >= c.cfg.MaxAttempts {
		return Submission{Reason: RejectAttemptsExhausted}, nil
	}

	// Membership is recorded before the first result so the user is part
	// of the close-of-round fan-out even if scoring fails below.
	if err := c.repo.InsertParticipant(ctx, gameID, userID); err != nil {
		return Submission{}, fmt.Errorf("join game: %w", err)
	}

	score, err := c.runScorer(ctx, text, g.Prompt)
	if err != nil {
		return Submission{}, fmt.Errorf("score submission: %w", err)
	}

	result := Result{
		GameID:      gameID,
		UserID:      userID,
		DisplayName: displayName,
		Text:        text,
		Score:       score,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.repo.InsertResult(ctx, result); err != nil {
		return Submission{}, fmt.Errorf("record result: %w", err)
	}
	c.log.Info("submission accepted",
		zap.String("game_id", gameID),
		zap.Int64("user_id", userID),
		zap.Int("score", score),
		zap.Int("attempt", attempts+1))
	return Submission{Accepted: &result}, nil
}

func (c *Coordinator) runScorer(ctx context.Context, submitted, truth string) (int, error) {
	if c.cfg.ScoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ScoreTimeout)
		defer cancel()
	}
	score, err := c.scorer.Score(ctx, submitted, truth)
	if err != nil {
		return 0, err
	}
	if score < 0 {
		score = 0
	}
	if score > WinningScore {
		score = WinningScore
	}
	return score, nil
}
