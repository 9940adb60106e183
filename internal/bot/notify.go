package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
)

// announceRound sends the round image to every known user. Failures are
// counted and logged per user, never aborting the fan-out.
func (b *Bot) announceRound(ctx context.Context, g game.Game) (notified, failed int) {
	userIDs, err := b.repo.ListUserIDs(ctx)
	if err != nil {
		b.log.Error("list users for announcement", zap.Error(err))
		return 0, 0
	}
	for _, userID := range userIDs {
		if err := b.api.SendPhoto(ctx, userID, g.ImageRef, captionNewRound); err != nil {
			failed++
			b.log.Warn("announce round", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		notified++
	}
	b.log.Info("round announced",
		zap.String("game_id", g.ID),
		zap.Int("notified", notified),
		zap.Int("failed", failed))
	return notified, failed
}

// announceResults messages every participant of the finished round their
// best score together with the standings. Best effort per participant.
func (b *Bot) announceResults(ctx context.Context, gameID string) (notified, failed int) {
	participants, err := b.repo.ListParticipants(ctx, gameID)
	if err != nil {
		b.log.Error("list participants", zap.String("game_id", gameID), zap.Error(err))
		return 0, 0
	}
	best, err := b.aggregator.BestResults(ctx, gameID)
	if err != nil {
		b.log.Error("aggregate results", zap.String("game_id", gameID), zap.Error(err))
		return 0, 0
	}
	standings := formatStandings(best)

	for _, userID := range participants {
		score, err := b.aggregator.UserBestScore(ctx, gameID, userID)
		if err != nil {
			failed++
			b.log.Warn("compute best score", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		text := fmt.Sprintf("The round is over! Your best score: %d/100.\n\n%s", score, standings)
		if err := b.api.SendMessage(ctx, userID, text, nil); err != nil {
			failed++
			b.log.Warn("notify participant", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		notified++
	}
	b.log.Info("results announced",
		zap.String("game_id", gameID),
		zap.Int("notified", notified),
		zap.Int("failed", failed))
	return notified, failed
}

func formatStandings(best []game.Result) string {
	if len(best) == 0 {
		return "Nobody submitted a guess this round."
	}
	var sb strings.Builder
	sb.WriteString("Top guesses:\n")
	limit := len(best)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		r := best[i]
		name := r.DisplayName
		if name == "" {
			name = fmt.Sprintf("User %d", r.UserID)
		}
		fmt.Fprintf(&sb, "%d. %s: %d\n", i+1, name, r.Score)
	}
	return sb.String()
}
