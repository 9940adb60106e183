package bot

import (
	"context"
	"fmt"

	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message, _ string) error {
	user, found, err := b.repo.GetUser(ctx, msg.From.ID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if found && user.State == game.UserStateRegistered {
		if _, joined, err := b.repo.UserActiveGame(ctx, msg.From.ID); err == nil && joined {
			b.reply(ctx, msg, msgRoundInProgress)
			return nil
		}
		b.reply(ctx, msg, msgWelcomeBack)
		return nil
	}

	keyboard := telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: "Share phone number", RequestContact: true}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
	return b.api.SendMessage(ctx, msg.Chat.ID, msgWelcome, keyboard)
}

func (b *Bot) handleHelp(ctx context.Context, msg *telegram.Message, _ string) error {
	b.reply(ctx, msg, msgHelp)
	return nil
}

func (b *Bot) handleContact(ctx context.Context, msg *telegram.Message, _ string) error {
	contact := msg.Contact
	// Only the user's own contact completes registration.
	if contact.UserID != msg.From.ID {
		return nil
	}
	if err := b.repo.SetUserPhone(ctx, msg.From.ID, contact.PhoneNumber); err != nil {
		return fmt.Errorf("save phone: %w", err)
	}
	if err := b.repo.SetUserState(ctx, msg.From.ID, game.UserStateRegistered); err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	b.reply(ctx, msg, msgRegistered)
	return nil
}

func (b *Bot) handleGuess(ctx context.Context, msg *telegram.Message, guess string) error {
	gameID, active, err := b.lifecycle.CurrentActive(ctx)
	if err != nil {
		return fmt.Errorf("look up active game: %w", err)
	}
	if !active {
		b.reply(ctx, msg, msgNoActiveRound)
		return nil
	}

	sub, err := b.coordinator.Submit(ctx, gameID, msg.From.ID, msg.From.DisplayName(), guess)
	if err != nil {
		return fmt.Errorf("submit guess: %w", err)
	}
	if sub.Rejected() {
		b.reply(ctx, msg, rejectionMessage(sub.Reason))
		return nil
	}

	text := fmt.Sprintf("Your score: %d/100.", sub.Accepted.Score)
	if sub.Accepted.Score == game.WinningScore {
		text = "Perfect guess, 100/100! You nailed the prompt."
	}
	b.reply(ctx, msg, text)
	return nil
}

func rejectionMessage(reason game.RejectReason) string {
	switch reason {
	case game.RejectGameNotFound, game.RejectGameNotActive:
		return msgRoundOver
	case game.RejectAttemptsExhausted:
		return msgNoAttemptsLeft
	case game.RejectAlreadyWon:
		return msgAlreadyWon
	default:
		return msgTryAgain
	}
}
