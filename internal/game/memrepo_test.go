package game

import (
	"context"
	"sync"
)

// memRepo is an in-memory Repository for tests, mirroring the relational
// layout: games in creation order, append-only results, unique
// participant pairs.
type memRepo struct {
	mu           sync.Mutex
	order        []string
	games        map[string]*Game
	participants map[string]map[int64]struct{}
	results      []Result
	users        map[int64]User
}

func newMemRepo() *memRepo {
	return &memRepo{
		games:        make(map[string]*Game),
		participants: make(map[string]map[int64]struct{}),
		users:        make(map[int64]User),
	}
}

func (m *memRepo) CreateGame(_ context.Context, g Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := g
	m.games[g.ID] = &copied
	m.order = append(m.order, g.ID)
	return nil
}

func (m *memRepo) GetGame(_ context.Context, id string) (Game, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return Game{}, false, nil
	}
	return *g, true, nil
}

func (m *memRepo) GetGameStatus(_ context.Context, id string) (Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return "", false, nil
	}
	return g.Status, true, nil
}

func (m *memRepo) SetGameStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[id]; ok {
		g.Status = status
	}
	return nil
}

// SwapActive mirrors the relational transaction: both writes land under
// one lock hold, so readers never see the gap between them.
func (m *memRepo) SwapActive(_ context.Context, finishID, activateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if finishID != "" {
		if g, ok := m.games[finishID]; ok {
			g.Status = StatusFinished
		}
	}
	if g, ok := m.games[activateID]; ok {
		g.Status = StatusActive
	}
	return nil
}

func (m *memRepo) CurrentActiveGame(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if m.games[id].Status == StatusActive {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memRepo) OldestPendingGame(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if m.games[id].Status == StatusPending {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memRepo) LastFinishedGame(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if m.games[m.order[i]].Status == StatusFinished {
			return m.order[i], true, nil
		}
	}
	return "", false, nil
}

func (m *memRepo) ListFinishedGames(_ context.Context) ([]Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var finished []Game
	for i := len(m.order) - 1; i >= 0; i-- {
		if g := m.games[m.order[i]]; g.Status == StatusFinished {
			finished = append(finished, *g)
		}
	}
	return finished, nil
}

func (m *memRepo) InsertParticipant(_ context.Context, gameID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.participants[gameID] == nil {
		m.participants[gameID] = make(map[int64]struct{})
	}
	m.participants[gameID][userID] = struct{}{}
	return nil
}

func (m *memRepo) ListParticipants(_ context.Context, gameID string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.participants[gameID]))
	for id := range m.participants[gameID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memRepo) UserActiveGame(_ context.Context, userID int64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if m.games[id].Status != StatusActive {
			continue
		}
		if _, ok := m.participants[id][userID]; ok {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memRepo) InsertResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memRepo) CountResults(_ context.Context, gameID string, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.results {
		if r.GameID == gameID && r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) HasWinningResult(_ context.Context, gameID string, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		if r.GameID == gameID && r.UserID == userID && r.Score == WinningScore {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListResults(_ context.Context, gameID string) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Result
	for _, r := range m.results {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	return out, nil
}

// BestResultsPerUser mimics the relational group-by-max join: every row
// matching a user's maximum score comes back, duplicates included.
func (m *memRepo) BestResultsPerUser(_ context.Context, gameID string) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maxScores := make(map[int64]int)
	for _, r := range m.results {
		if r.GameID != gameID {
			continue
		}
		if best, ok := maxScores[r.UserID]; !ok || r.Score > best {
			maxScores[r.UserID] = r.Score
		}
	}
	var out []Result
	for _, r := range m.results {
		if r.GameID == gameID && r.Score == maxScores[r.UserID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) UpsertUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.ID]; ok {
		existing.DisplayName = u.DisplayName
		m.users[u.ID] = existing
		return nil
	}
	m.users[u.ID] = u
	return nil
}

func (m *memRepo) GetUser(_ context.Context, id int64) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *memRepo) ListUserIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memRepo) SetUserPhone(_ context.Context, id int64, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Phone = phone
		m.users[id] = u
	}
	return nil
}

func (m *memRepo) SetUserState(_ context.Context, id int64, state UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.State = state
		m.users[id] = u
	}
	return nil
}
