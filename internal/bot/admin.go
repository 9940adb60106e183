package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/horv1tz/prompt-battle-tgbot/internal/export"
	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

func (b *Bot) handleMakeGame(ctx context.Context, msg *telegram.Message, prompt string) error {
	if strings.TrimSpace(prompt) == "" || len(msg.Photo) == 0 {
		b.reply(ctx, msg, msgMakeGameUsage)
		return nil
	}
	// Telegram sends several sizes; the last one is the largest.
	photoID := msg.Photo[len(msg.Photo)-1].FileID

	gameID, err := b.lifecycle.CreateGame(ctx, prompt, photoID)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	b.reply(ctx, msg, fmt.Sprintf("Game queued (%s). Launch it with /startgame.", gameID))
	return nil
}

func (b *Bot) handleStartGame(ctx context.Context, msg *telegram.Message, _ string) error {
	gameID, ok, err := b.lifecycle.ActivateNext(ctx)
	if err != nil {
		return fmt.Errorf("activate next game: %w", err)
	}
	if !ok {
		b.reply(ctx, msg, msgNoPendingGame)
		return nil
	}

	g, found, err := b.repo.GetGame(ctx, gameID)
	if err != nil || !found {
		return fmt.Errorf("load activated game %s: %w", gameID, err)
	}
	notified, failed := b.announceRound(ctx, g)
	b.reply(ctx, msg, fmt.Sprintf("Round %s is live. Announced to %d users (%d failed).", gameID, notified, failed))
	return nil
}

func (b *Bot) handleStopGame(ctx context.Context, msg *telegram.Message, _ string) error {
	gameID, ok, err := b.lifecycle.StopActive(ctx)
	if err != nil {
		return fmt.Errorf("stop active game: %w", err)
	}
	if !ok {
		b.reply(ctx, msg, msgNoActiveGame)
		return nil
	}

	notified, failed := b.announceResults(ctx, gameID)
	b.reply(ctx, msg, fmt.Sprintf("Round %s stopped. Results sent to %d participants (%d failed).", gameID, notified, failed))
	return nil
}

// handleExport sends the standings of the most recently finished game as
// an xlsx document.
func (b *Bot) handleExport(ctx context.Context, msg *telegram.Message, _ string) error {
	gameID, found, err := b.repo.LastFinishedGame(ctx)
	if err != nil {
		return fmt.Errorf("look up finished game: %w", err)
	}
	if !found {
		b.reply(ctx, msg, msgNoFinishedGame)
		return nil
	}
	g, found, err := b.repo.GetGame(ctx, gameID)
	if err != nil || !found {
		return fmt.Errorf("load game %s: %w", gameID, err)
	}

	best, err := b.aggregator.BestResults(ctx, gameID)
	if err != nil {
		return fmt.Errorf("aggregate best results: %w", err)
	}
	all, err := b.aggregator.AllResults(ctx, gameID)
	if err != nil {
		return fmt.Errorf("aggregate results: %w", err)
	}

	workbook, err := export.ResultsWorkbook(g, best, all)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("serialize workbook: %w", err)
	}
	filename := fmt.Sprintf("prompt-battle-%s.xlsx", gameID)
	if err := b.api.SendDocument(ctx, msg.Chat.ID, filename, buf.Bytes(), "Round results"); err != nil {
		return fmt.Errorf("send workbook: %w", err)
	}
	return nil
}
