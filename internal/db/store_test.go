package db

import (
	"testing"

	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
)

func TestStatusEventType(t *testing.T) {
	cases := []struct {
		status game.Status
		want   string
	}{
		{game.StatusActive, "game_activated"},
		{game.StatusFinished, "game_finished"},
		{game.StatusPending, "game_pending"},
	}
	for _, tc := range cases {
		if got := statusEventType(tc.status); got != tc.want {
			t.Fatalf("statusEventType(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}
