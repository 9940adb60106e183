// Package db holds the GORM models and the Postgres-backed repository for
// the prompt battle core.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
)

// Store implements game.Repository on top of Postgres.
type Store struct {
	conn *gorm.DB
	log  *zap.Logger
}

var _ game.Repository = (*Store)(nil)

func NewStore(conn *gorm.DB, log *zap.Logger) *Store {
	return &Store{conn: conn, log: log}
}

func (s *Store) CreateGame(ctx context.Context, g game.Game) error {
	record := Game{
		GameID:    g.ID,
		Prompt:    g.Prompt,
		PhotoID:   g.ImageRef,
		Status:    string(g.Status),
		CreatedAt: g.CreatedAt,
	}
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	s.logEvent(ctx, g.ID, nil, "game_created", map[string]any{"status": string(g.Status)})
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (game.Game, bool, error) {
	var record Game
	err := s.conn.WithContext(ctx).Where("game_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Game{}, false, nil
	}
	if err != nil {
		return game.Game{}, false, err
	}
	return toGame(record), true, nil
}

func (s *Store) GetGameStatus(ctx context.Context, id string) (game.Status, bool, error) {
	var record Game
	err := s.conn.WithContext(ctx).
		Select("status").
		Where("game_id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return game.Status(record.Status), true, nil
}

func (s *Store) SetGameStatus(ctx context.Context, id string, status game.Status) error {
	err := s.conn.WithContext(ctx).Model(&Game{}).
		Where("game_id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		return err
	}
	s.logEvent(ctx, id, nil, statusEventType(status), nil)
	return nil
}

// SwapActive runs the finish and the activation in one transaction, so
// concurrent status reads see the old round active or the new one, never
// neither.
func (s *Store) SwapActive(ctx context.Context, finishID, activateID string) error {
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if finishID != "" {
			err := tx.Model(&Game{}).
				Where("game_id = ?", finishID).
				Update("status", string(game.StatusFinished)).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&Game{}).
			Where("game_id = ?", activateID).
			Update("status", string(game.StatusActive)).Error
	})
	if err != nil {
		return err
	}
	if finishID != "" {
		s.logEvent(ctx, finishID, nil, statusEventType(game.StatusFinished), nil)
	}
	s.logEvent(ctx, activateID, nil, statusEventType(game.StatusActive), nil)
	return nil
}

func statusEventType(status game.Status) string {
	switch status {
	case game.StatusActive:
		return "game_activated"
	case game.StatusFinished:
		return "game_finished"
	default:
		return "game_" + string(status)
	}
}

func (s *Store) CurrentActiveGame(ctx context.Context) (string, bool, error) {
	return s.firstGameID(ctx, string(game.StatusActive), "id DESC")
}

func (s *Store) OldestPendingGame(ctx context.Context) (string, bool, error) {
	return s.firstGameID(ctx, string(game.StatusPending), "id ASC")
}

func (s *Store) LastFinishedGame(ctx context.Context) (string, bool, error) {
	return s.firstGameID(ctx, string(game.StatusFinished), "id DESC")
}

func (s *Store) firstGameID(ctx context.Context, status, order string) (string, bool, error) {
	var record Game
	err := s.conn.WithContext(ctx).
		Where("status = ?", status).
		Order(order).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.GameID, true, nil
}

func (s *Store) ListFinishedGames(ctx context.Context) ([]game.Game, error) {
	var records []Game
	err := s.conn.WithContext(ctx).
		Where("status = ?", string(game.StatusFinished)).
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	games := make([]game.Game, 0, len(records))
	for _, record := range records {
		games = append(games, toGame(record))
	}
	return games, nil
}

func (s *Store) InsertParticipant(ctx context.Context, gameID string, userID int64) error {
	record := Participant{GameID: gameID, UserID: userID, CreatedAt: time.Now().UTC()}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}

func (s *Store) ListParticipants(ctx context.Context, gameID string) ([]int64, error) {
	var ids []int64
	err := s.conn.WithContext(ctx).Model(&Participant{}).
		Where("game_id = ?", gameID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *Store) UserActiveGame(ctx context.Context, userID int64) (string, bool, error) {
	var gameID string
	err := s.conn.WithContext(ctx).Model(&Participant{}).
		Select("participants.game_id").
		Joins("JOIN games ON games.game_id = participants.game_id").
		Where("participants.user_id = ? AND games.status = ?", userID, string(game.StatusActive)).
		Limit(1).
		Scan(&gameID).Error
	if err != nil {
		return "", false, err
	}
	return gameID, gameID != "", nil
}

func (s *Store) InsertResult(ctx context.Context, r game.Result) error {
	record := Result{
		GameID:     r.GameID,
		UserID:     r.UserID,
		Username:   r.DisplayName,
		PromptText: r.Text,
		Score:      r.Score,
		CreatedAt:  r.CreatedAt,
	}
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	s.logEvent(ctx, r.GameID, &r.UserID, "result_recorded", map[string]any{"score": r.Score})
	return nil
}

func (s *Store) CountResults(ctx context.Context, gameID string, userID int64) (int, error) {
	var count int64
	err := s.conn.WithContext(ctx).Model(&Result{}).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Count(&count).Error
	return int(count), err
}

func (s *Store) HasWinningResult(ctx context.Context, gameID string, userID int64) (bool, error) {
	var count int64
	err := s.conn.WithContext(ctx).Model(&Result{}).
		Where("game_id = ? AND user_id = ? AND score = ?", gameID, userID, game.WinningScore).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) ListResults(ctx context.Context, gameID string) ([]game.Result, error) {
	var records []Result
	err := s.conn.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toResults(records), nil
}

// BestResultsPerUser returns every row matching a user's maximum score in
// the game; the aggregator collapses ties to the earliest row.
func (s *Store) BestResultsPerUser(ctx context.Context, gameID string) ([]game.Result, error) {
	var records []Result
	err := s.conn.WithContext(ctx).Raw(`
		SELECT r.*
		FROM results r
		INNER JOIN (
			SELECT user_id, MAX(score) AS max_score
			FROM results
			WHERE game_id = ?
			GROUP BY user_id
		) best ON r.user_id = best.user_id AND r.score = best.max_score
		WHERE r.game_id = ?
		ORDER BY r.score DESC, r.id ASC`, gameID, gameID).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return toResults(records), nil
}

func (s *Store) UpsertUser(ctx context.Context, u game.User) error {
	record := User{
		UserID:   u.ID,
		Username: u.DisplayName,
		Phone:    u.Phone,
		State:    string(u.State),
	}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username"}),
		}).
		Create(&record).Error
}

func (s *Store) GetUser(ctx context.Context, id int64) (game.User, bool, error) {
	var record User
	err := s.conn.WithContext(ctx).Where("user_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.User{}, false, nil
	}
	if err != nil {
		return game.User{}, false, err
	}
	return game.User{
		ID:          record.UserID,
		DisplayName: record.Username,
		Phone:       record.Phone,
		State:       game.UserState(record.State),
	}, true, nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.conn.WithContext(ctx).Model(&User{}).Pluck("user_id", &ids).Error
	return ids, err
}

func (s *Store) SetUserPhone(ctx context.Context, id int64, phone string) error {
	return s.conn.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", id).
		Update("phone", phone).Error
}

func (s *Store) SetUserState(ctx context.Context, id int64, state game.UserState) error {
	return s.conn.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", id).
		Update("state", string(state)).Error
}

// logEvent writes an audit row; failures are logged, never propagated.
func (s *Store) logEvent(ctx context.Context, gameID string, userID *int64, eventType string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("encode event payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	event := Event{
		GameID:    gameID,
		UserID:    userID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.conn.WithContext(ctx).Create(&event).Error; err != nil {
		s.log.Warn("record event", zap.String("type", eventType), zap.Error(err))
	}
}

func toGame(record Game) game.Game {
	return game.Game{
		ID:        record.GameID,
		Prompt:    record.Prompt,
		ImageRef:  record.PhotoID,
		Status:    game.Status(record.Status),
		CreatedAt: record.CreatedAt,
	}
}

func toResults(records []Result) []game.Result {
	results := make([]game.Result, 0, len(records))
	for _, record := range records {
		results = append(results, game.Result{
			GameID:      record.GameID,
			UserID:      record.UserID,
			DisplayName: record.Username,
			Text:        record.PromptText,
			Score:       record.Score,
			CreatedAt:   record.CreatedAt,
		})
	}
	return results
}
