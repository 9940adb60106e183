package game

import "context"

// Repository is the durable source of truth for games, users, participants
// and results. Lookups report absence through the ok return, never as an
// error; errors are reserved for storage failures.
type Repository interface {
	CreateGame(ctx context.Context, g Game) error
	GetGame(ctx context.Context, id string) (Game, bool, error)
	GetGameStatus(ctx context.Context, id string) (Status, bool, error)
	SetGameStatus(ctx context.Context, id string, status Status) error
	// SwapActive finishes finishID (skipped when empty) and activates
	// activateID as one atomic step: no concurrent read may observe the
	// first write without the second.
	SwapActive(ctx context.Context, finishID, activateID string) error
	CurrentActiveGame(ctx context.Context) (string, bool, error)
	OldestPendingGame(ctx context.Context) (string, bool, error)
	LastFinishedGame(ctx context.Context) (string, bool, error)
	ListFinishedGames(ctx context.Context) ([]Game, error)

	// InsertParticipant is idempotent per (game, user) pair.
	InsertParticipant(ctx context.Context, gameID string, userID int64) error
	ListParticipants(ctx context.Context, gameID string) ([]int64, error)
	// UserActiveGame returns the currently active game the user has joined.
	UserActiveGame(ctx context.Context, userID int64) (string, bool, error)

	InsertResult(ctx context.Context, r Result) error
	CountResults(ctx context.Context, gameID string, userID int64) (int, error)
	HasWinningResult(ctx context.Context, gameID string, userID int64) (bool, error)
	ListResults(ctx context.Context, gameID string) ([]Result, error)
	BestResultsPerUser(ctx context.Context, gameID string) ([]Result, error)

	UpsertUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id int64) (User, bool, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	SetUserPhone(ctx context.Context, id int64, phone string) error
	SetUserState(ctx context.Context, id int64, state UserState) error
}

// Scorer compares a submitted guess against the true prompt and yields a
// similarity score in [0, 100]. Implementations may be slow; they must
// honor ctx cancellation.
type Scorer interface {
	Score(ctx context.Context, submitted, truth string) (int, error)
}
