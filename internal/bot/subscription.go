package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

// subscribed reports whether the user is a member of the configured
// channel. An empty CHANNEL_ID disables the gate.
func (b *Bot) subscribed(ctx context.Context, userID int64) (bool, error) {
	if b.cfg.ChannelID == "" {
		return true, nil
	}
	member, err := b.api.GetChatMember(ctx, b.cfg.ChannelID, userID)
	if err != nil {
		return false, err
	}
	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	default:
		return false, nil
	}
}

func (b *Bot) sendSubscriptionPrompt(ctx context.Context, chatID int64) {
	var markup interface{}
	if b.cfg.ChannelLink != "" {
		markup = telegram.InlineKeyboardMarkup{
			InlineKeyboard: [][]telegram.InlineKeyboardButton{
				{{Text: "Open the channel", URL: b.cfg.ChannelLink}},
			},
		}
	}
	if err := b.api.SendMessage(ctx, chatID, msgSubscribeFirst, markup); err != nil {
		b.log.Warn("send subscription prompt", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
