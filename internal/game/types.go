package game

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

type UserState string

const (
	UserStateNew        UserState = "new"
	UserStateRegistered UserState = "registered"
)

// WinningScore is the score an exact match yields.
const WinningScore = 100

type Game struct {
	ID        string
	Prompt    string
	ImageRef  string
	Status    Status
	CreatedAt time.Time
}

type User struct {
	ID          int64
	DisplayName string
	Phone       string
	State       UserState
}

type Result struct {
	GameID      string
	UserID      int64
	DisplayName string
	Text        string
	Score       int
	CreatedAt   time.Time
}

type RejectReason string

const (
	RejectGameNotFound      RejectReason = "game-not-found"
	RejectGameNotActive     RejectReason = "game-not-active"
	RejectAttemptsExhausted RejectReason = "attempts-exhausted"
	RejectAlreadyWon        RejectReason = "already-won"
)

// Submission is the outcome of one guess. Exactly one of Accepted or
// Reason is set.
type Submission struct {
	Accepted *Result
	Reason   RejectReason
}

func (s Submission) Rejected() bool {
	return s.Accepted == nil
}
