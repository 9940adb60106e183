package game

import (
	"context"
	"sort"
)

// Aggregator derives leaderboard views from raw result rows. All views are
// read-only and reflect every result committed before the read.
type Aggregator struct {
	repo Repository
}

func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// AllResults returns every result of the game, best score first; equal
// scores keep submission order.
func (a *Aggregator) AllResults(ctx context.Context, gameID string) ([]Result, error) {
	results, err := a.repo.ListResults(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sortByScore(results)
	return results, nil
}

// BestResults returns one result per user: their maximum score, the
// earliest row on a tie, ordered best score first.
func (a *Aggregator) BestResults(ctx context.Context, gameID string) ([]Result, error) {
	rows, err := a.repo.BestResultsPerUser(ctx, gameID)
	if err != nil {
		return nil, err
	}
	// The store may hand back several rows for a user who hit their
	// maximum more than once; keep the earliest.
	best := make(map[int64]Result, len(rows))
	for _, r := range rows {
		prev, ok := best[r.UserID]
		if !ok || r.Score > prev.Score || (r.Score == prev.Score && r.CreatedAt.Before(prev.CreatedAt)) {
			best[r.UserID] = r
		}
	}
	results := make([]Result, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sortByScore(results)
	return results, nil
}

// UserBestScore returns the user's maximum score in the game, 0 when they
// have no result.
func (a *Aggregator) UserBestScore(ctx context.Context, gameID string, userID int64) (int, error) {
	results, err := a.repo.ListResults(ctx, gameID)
	if err != nil {
		return 0, err
	}
	best := 0
	for _, r := range results {
		if r.UserID == userID && r.Score > best {
			best = r.Score
		}
	}
	return best, nil
}

func sortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
}
