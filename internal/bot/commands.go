package bot

import (
	"strings"

	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

type intent int

const (
	intentNone intent = iota
	intentStart
	intentHelp
	intentContact
	intentGuess
	intentMakeGame
	intentStartGame
	intentStopGame
	intentExport
)

func (i intent) String() string {
	switch i {
	case intentStart:
		return "start"
	case intentHelp:
		return "help"
	case intentContact:
		return "contact"
	case intentGuess:
		return "guess"
	case intentMakeGame:
		return "makegame"
	case intentStartGame:
		return "startgame"
	case intentStopGame:
		return "stopgame"
	case intentExport:
		return "excel"
	default:
		return "none"
	}
}

func isAdminIntent(i intent) bool {
	switch i {
	case intentMakeGame, intentStartGame, intentStopGame, intentExport:
		return true
	default:
		return false
	}
}

// classify maps a message to an intent and its argument: the command
// argument for commands, the guess text for plain messages.
func classify(msg *telegram.Message) (intent, string) {
	if msg.Contact != nil {
		return intentContact, ""
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// A photo caption can carry a command, e.g. /makegame.
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return intentNone, ""
	}
	if !strings.HasPrefix(text, "/") {
		return intentGuess, text
	}

	command, arg := splitCommand(text)
	switch command {
	case "start":
		return intentStart, arg
	case "help":
		return intentHelp, arg
	case "makegame":
		return intentMakeGame, arg
	case "startgame":
		return intentStartGame, arg
	case "stopgame":
		return intentStopGame, arg
	case "excel":
		return intentExport, arg
	default:
		return intentNone, ""
	}
}

// splitCommand separates "/makegame@BotName the prompt" into the bare
// command name and its argument.
func splitCommand(text string) (string, string) {
	rest := ""
	if idx := strings.IndexAny(text, " \n"); idx >= 0 {
		rest = strings.TrimSpace(text[idx+1:])
		text = text[:idx]
	}
	command := strings.TrimPrefix(text, "/")
	if idx := strings.Index(command, "@"); idx >= 0 {
		command = command[:idx]
	}
	return strings.ToLower(command), rest
}
