// Package bot routes Telegram updates to the game core: admin commands
// drive the round lifecycle, user messages become scored guesses.
package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/horv1tz/prompt-battle-tgbot/internal/config"
	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

// API is the slice of the Telegram client the bot consumes.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, replyMarkup interface{}) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
	GetChatMember(ctx context.Context, chatID string, userID int64) (telegram.ChatMember, error)
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand, scope interface{}) error
}

const (
	pollTimeoutSeconds = 30
	updateQueueSize    = 32
)

type handlerFunc func(ctx context.Context, msg *telegram.Message, arg string) error

type Bot struct {
	api         API
	cfg         config.Config
	log         *zap.Logger
	repo        game.Repository
	lifecycle   *game.Lifecycle
	coordinator *game.Coordinator
	aggregator  *game.Aggregator
	handlers    map[intent]handlerFunc

	queueMu sync.Mutex
	queues  map[int64]chan telegram.Update
}

func New(api API, cfg config.Config, repo game.Repository, lifecycle *game.Lifecycle, coordinator *game.Coordinator, aggregator *game.Aggregator, log *zap.Logger) *Bot {
	b := &Bot{
		api:         api,
		cfg:         cfg,
		log:         log,
		repo:        repo,
		lifecycle:   lifecycle,
		coordinator: coordinator,
		aggregator:  aggregator,
		queues:      make(map[int64]chan telegram.Update),
	}
	b.handlers = map[intent]handlerFunc{
		intentStart:     b.handleStart,
		intentHelp:      b.handleHelp,
		intentContact:   b.handleContact,
		intentGuess:     b.handleGuess,
		intentMakeGame:  b.handleMakeGame,
		intentStartGame: b.handleStartGame,
		intentStopGame:  b.handleStopGame,
		intentExport:    b.handleExport,
	}
	return b
}

// Run polls for updates until ctx is cancelled. Updates are dispatched to
// one worker per sender, so a slow scoring call never blocks other users
// while one user's messages still land in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	b.registerCommands(ctx)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := b.api.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Warn("get updates", zap.Error(err))
			time.Sleep(3 * time.Second)
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch hands the update to the sender's worker, starting one on first
// contact. Workers live for the process; the map is bounded by the user
// count, like the coordinator's submission locks.
func (b *Bot) dispatch(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	b.queueMu.Lock()
	queue, ok := b.queues[msg.From.ID]
	if !ok {
		queue = make(chan telegram.Update, updateQueueSize)
		b.queues[msg.From.ID] = queue
		go b.drainQueue(ctx, queue)
	}
	b.queueMu.Unlock()

	select {
	case queue <- update:
	case <-ctx.Done():
	}
}

func (b *Bot) drainQueue(ctx context.Context, queue <-chan telegram.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-queue:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	from := *msg.From

	if err := b.repo.UpsertUser(ctx, game.User{
		ID:          from.ID,
		DisplayName: from.DisplayName(),
		State:       game.UserStateNew,
	}); err != nil {
		b.log.Error("upsert user", zap.Int64("user_id", from.ID), zap.Error(err))
	}

	in, arg := classify(msg)
	if in == intentNone {
		return
	}

	isAdmin := b.cfg.IsAdmin(from.ID)
	if isAdminIntent(in) && !isAdmin {
		b.reply(ctx, msg, msgNotAllowed)
		return
	}
	if !isAdmin {
		ok, err := b.subscribed(ctx, from.ID)
		if err != nil {
			// The gate fails open: a misconfigured channel must not
			// lock users out.
			b.log.Warn("subscription check", zap.Int64("user_id", from.ID), zap.Error(err))
		} else if !ok {
			b.sendSubscriptionPrompt(ctx, msg.Chat.ID)
			return
		}
	}

	if err := b.handlers[in](ctx, msg, arg); err != nil {
		b.log.Error("handle message",
			zap.Int64("user_id", from.ID),
			zap.String("intent", in.String()),
			zap.Error(err))
		b.reply(ctx, msg, msgTryAgain)
	}
}

func (b *Bot) reply(ctx context.Context, msg *telegram.Message, text string) {
	if err := b.api.SendMessage(ctx, msg.Chat.ID, text, nil); err != nil {
		b.log.Warn("send reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

// registerCommands publishes the user command list globally and the
// extended list to each admin chat. Best effort.
func (b *Bot) registerCommands(ctx context.Context) {
	userCommands := []telegram.BotCommand{
		{Command: "start", Description: "Register to play"},
		{Command: "help", Description: "How the game works"},
	}
	adminCommands := append(userCommands,
		telegram.BotCommand{Command: "makegame", Description: "Queue a new round"},
		telegram.BotCommand{Command: "startgame", Description: "Start the next round"},
		telegram.BotCommand{Command: "stopgame", Description: "Stop the current round"},
		telegram.BotCommand{Command: "excel", Description: "Export round results"},
	)

	if err := b.api.SetMyCommands(ctx, userCommands, nil); err != nil {
		b.log.Warn("set user commands", zap.Error(err))
	}
	for _, adminID := range b.cfg.AdminIDs {
		scope := telegram.BotCommandScopeChat{Type: "chat", ChatID: adminID}
		if err := b.api.SetMyCommands(ctx, adminCommands, scope); err != nil {
			b.log.Warn("set admin commands", zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}
