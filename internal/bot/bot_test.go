package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/horv1tz/prompt-battle-tgbot/internal/config"
	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
	"github.com/horv1tz/prompt-battle-tgbot/internal/telegram"
)

// fakeAPI records outbound Telegram calls.
type fakeAPI struct {
	mu        sync.Mutex
	messages  []sentMessage
	photos    []sentPhoto
	documents []sentDocument
	member    telegram.ChatMember
	memberErr error
}

type sentMessage struct {
	chatID int64
	text   string
	markup interface{}
}

type sentPhoto struct {
	chatID  int64
	fileID  string
	caption string
}

type sentDocument struct {
	chatID   int64
	filename string
	data     []byte
}

func (f *fakeAPI) GetUpdates(context.Context, int64, int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID int64, text string, markup interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text, markup: markup})
	return nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, chatID int64, fileID, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{chatID: chatID, fileID: fileID, caption: caption})
	return nil
}

func (f *fakeAPI) SendDocument(_ context.Context, chatID int64, filename string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, sentDocument{chatID: chatID, filename: filename, data: data})
	return nil
}

func (f *fakeAPI) GetChatMember(context.Context, string, int64) (telegram.ChatMember, error) {
	return f.member, f.memberErr
}

func (f *fakeAPI) SetMyCommands(context.Context, []telegram.BotCommand, interface{}) error {
	return nil
}

func (f *fakeAPI) countMessagesTo(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, msg := range f.messages {
		if msg.chatID == chatID {
			count++
		}
	}
	return count
}

func (f *fakeAPI) lastMessageTo(chatID int64) (sentMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].chatID == chatID {
			return f.messages[i], true
		}
	}
	return sentMessage{}, false
}

// fakeRepo is a minimal single-goroutine game.Repository for bot tests.
type fakeRepo struct {
	order        []string
	games        map[string]*game.Game
	participants map[string]map[int64]bool
	results      []game.Result
	users        map[int64]game.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		games:        make(map[string]*game.Game),
		participants: make(map[string]map[int64]bool),
		users:        make(map[int64]game.User),
	}
}

func (r *fakeRepo) CreateGame(_ context.Context, g game.Game) error {
	copied := g
	r.games[g.ID] = &copied
	r.order = append(r.order, g.ID)
	return nil
}

func (r *fakeRepo) GetGame(_ context.Context, id string) (game.Game, bool, error) {
	g, ok := r.games[id]
	if !ok {
		return game.Game{}, false, nil
	}
	return *g, true, nil
}

func (r *fakeRepo) GetGameStatus(_ context.Context, id string) (game.Status, bool, error) {
	g, ok := r.games[id]
	if !ok {
		return "", false, nil
	}
	return g.Status, true, nil
}

func (r *fakeRepo) SetGameStatus(_ context.Context, id string, status game.Status) error {
	if g, ok := r.games[id]; ok {
		g.Status = status
	}
	return nil
}

func (r *fakeRepo) SwapActive(_ context.Context, finishID, activateID string) error {
	if finishID != "" {
		if g, ok := r.games[finishID]; ok {
			g.Status = game.StatusFinished
		}
	}
	if g, ok := r.games[activateID]; ok {
		g.Status = game.StatusActive
	}
	return nil
}

func (r *fakeRepo) findByStatus(status game.Status, newestFirst bool) (string, bool) {
	ids := r.order
	if newestFirst {
		for i := len(ids) - 1; i >= 0; i-- {
			if r.games[ids[i]].Status == status {
				return ids[i], true
			}
		}
		return "", false
	}
	for _, id := range ids {
		if r.games[id].Status == status {
			return id, true
		}
	}
	return "", false
}

func (r *fakeRepo) CurrentActiveGame(context.Context) (string, bool, error) {
	id, ok := r.findByStatus(game.StatusActive, true)
	return id, ok, nil
}

func (r *fakeRepo) OldestPendingGame(context.Context) (string, bool, error) {
	id, ok := r.findByStatus(game.StatusPending, false)
	return id, ok, nil
}

func (r *fakeRepo) LastFinishedGame(context.Context) (string, bool, error) {
	id, ok := r.findByStatus(game.StatusFinished, true)
	return id, ok, nil
}

func (r *fakeRepo) ListFinishedGames(context.Context) ([]game.Game, error) {
	var out []game.Game
	for i := len(r.order) - 1; i >= 0; i-- {
		if g := r.games[r.order[i]]; g.Status == game.StatusFinished {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertParticipant(_ context.Context, gameID string, userID int64) error {
	if r.participants[gameID] == nil {
		r.participants[gameID] = make(map[int64]bool)
	}
	r.participants[gameID][userID] = true
	return nil
}

func (r *fakeRepo) ListParticipants(_ context.Context, gameID string) ([]int64, error) {
	var ids []int64
	for id := range r.participants[gameID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeRepo) UserActiveGame(_ context.Context, userID int64) (string, bool, error) {
	for _, id := range r.order {
		if r.games[id].Status == game.StatusActive && r.participants[id][userID] {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (r *fakeRepo) InsertResult(_ context.Context, res game.Result) error {
	r.results = append(r.results, res)
	return nil
}

func (r *fakeRepo) CountResults(_ context.Context, gameID string, userID int64) (int, error) {
	count := 0
	for _, res := range r.results {
		if res.GameID == gameID && res.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) HasWinningResult(_ context.Context, gameID string, userID int64) (bool, error) {
	for _, res := range r.results {
		if res.GameID == gameID && res.UserID == userID && res.Score == game.WinningScore {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListResults(_ context.Context, gameID string) ([]game.Result, error) {
	var out []game.Result
	for _, res := range r.results {
		if res.GameID == gameID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeRepo) BestResultsPerUser(ctx context.Context, gameID string) ([]game.Result, error) {
	return r.ListResults(ctx, gameID)
}

func (r *fakeRepo) UpsertUser(_ context.Context, u game.User) error {
	if existing, ok := r.users[u.ID]; ok {
		existing.DisplayName = u.DisplayName
		r.users[u.ID] = existing
		return nil
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) GetUser(_ context.Context, id int64) (game.User, bool, error) {
	u, ok := r.users[id]
	return u, ok, nil
}

func (r *fakeRepo) ListUserIDs(context.Context) ([]int64, error) {
	var ids []int64
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeRepo) SetUserPhone(_ context.Context, id int64, phone string) error {
	if u, ok := r.users[id]; ok {
		u.Phone = phone
		r.users[id] = u
	}
	return nil
}

func (r *fakeRepo) SetUserState(_ context.Context, id int64, state game.UserState) error {
	if u, ok := r.users[id]; ok {
		u.State = state
		r.users[id] = u
	}
	return nil
}

type matchScorer struct{}

func (matchScorer) Score(_ context.Context, submitted, truth string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(truth)) {
		return game.WinningScore, nil
	}
	return 25, nil
}

const (
	adminID = int64(1000)
	userID  = int64(2000)
)

func newTestBot(api *fakeAPI) (*Bot, *fakeRepo) {
	repo := newFakeRepo()
	log := zap.NewNop()
	lifecycle := game.NewLifecycle(repo, log)
	coordinator := game.NewCoordinator(repo, matchScorer{}, game.CoordinatorConfig{MaxAttempts: 3, BlockAfterWin: true}, log)
	aggregator := game.NewAggregator(repo)
	cfg := config.Config{AdminIDs: []int64{adminID}}
	return New(api, cfg, repo, lifecycle, coordinator, aggregator, log), repo
}

func adminMessage(text string, photo bool) telegram.Update {
	msg := &telegram.Message{
		From: &telegram.User{ID: adminID, Username: "admin"},
		Chat: telegram.Chat{ID: adminID},
	}
	if photo {
		msg.Caption = text
		msg.Photo = []telegram.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	} else {
		msg.Text = text
	}
	return telegram.Update{Message: msg}
}

func userMessage(text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: userID, Username: "player"},
		Chat: telegram.Chat{ID: userID},
		Text: text,
	}}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		msg  telegram.Message
		want intent
		arg  string
	}{
		{"start", telegram.Message{Text: "/start"}, intentStart, ""},
		{"help with bot name", telegram.Message{Text: "/help@PromptBattleBot"}, intentHelp, ""},
		{"makegame caption", telegram.Message{Caption: "/makegame sunset over mountains"}, intentMakeGame, "sunset over mountains"},
		{"stopgame", telegram.Message{Text: "/stopgame"}, intentStopGame, ""},
		{"excel", telegram.Message{Text: "/excel"}, intentExport, ""},
		{"plain guess", telegram.Message{Text: "a cat in a hat"}, intentGuess, "a cat in a hat"},
		{"unknown command", telegram.Message{Text: "/frobnicate"}, intentNone, ""},
		{"empty", telegram.Message{}, intentNone, ""},
		{"contact", telegram.Message{Contact: &telegram.Contact{PhoneNumber: "+123"}}, intentContact, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, arg := classify(&tc.msg)
			if got != tc.want || arg != tc.arg {
				t.Fatalf("classify = (%v, %q), want (%v, %q)", got, arg, tc.want, tc.arg)
			}
		})
	}
}

func TestAdminCommandRejectedForUser(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(api)

	b.handleUpdate(context.Background(), userMessage("/stopgame"))

	msg, ok := api.lastMessageTo(userID)
	if !ok || msg.text != msgNotAllowed {
		t.Fatalf("expected not-allowed reply, got %+v", msg)
	}
}

func TestFullRoundFlow(t *testing.T) {
	api := &fakeAPI{}
	b, repo := newTestBot(api)
	ctx := context.Background()

	b.handleUpdate(ctx, adminMessage("/makegame sunset over mountains", true))
	if msg, ok := api.lastMessageTo(adminID); !ok || !strings.Contains(msg.text, "Game queued") {
		t.Fatalf("expected queue confirmation, got %+v", msg)
	}

	b.handleUpdate(ctx, userMessage("/start"))

	b.handleUpdate(ctx, adminMessage("/startgame", false))
	if len(api.photos) == 0 {
		t.Fatal("expected round announcement photos")
	}
	if api.photos[0].fileID != "large" {
		t.Fatalf("expected largest photo size announced, got %q", api.photos[0].fileID)
	}

	b.handleUpdate(ctx, userMessage("sunset over mountains"))
	if msg, ok := api.lastMessageTo(userID); !ok || !strings.Contains(msg.text, "100") {
		t.Fatalf("expected winning reply, got %+v", msg)
	}

	b.handleUpdate(ctx, userMessage("second try"))
	if msg, _ := api.lastMessageTo(userID); msg.text != msgAlreadyWon {
		t.Fatalf("expected already-won reply, got %q", msg.text)
	}

	b.handleUpdate(ctx, adminMessage("/stopgame", false))
	if msg, _ := api.lastMessageTo(userID); !strings.Contains(msg.text, "Your best score: 100") {
		t.Fatalf("expected result notification, got %q", msg.text)
	}

	b.handleUpdate(ctx, adminMessage("/excel", false))
	if len(api.documents) != 1 || !strings.HasSuffix(api.documents[0].filename, ".xlsx") {
		t.Fatalf("expected workbook document, got %+v", api.documents)
	}
	if len(api.documents[0].data) == 0 {
		t.Fatal("expected non-empty workbook")
	}

	if gameID, ok, _ := repo.CurrentActiveGame(ctx); ok {
		t.Fatalf("expected no active game after stop, got %q", gameID)
	}
}

func TestGuessWithoutActiveRound(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(api)

	b.handleUpdate(context.Background(), userMessage("a guess"))

	if msg, _ := api.lastMessageTo(userID); msg.text != msgNoActiveRound {
		t.Fatalf("expected no-active-round reply, got %q", msg.text)
	}
}

func TestContactRegistration(t *testing.T) {
	api := &fakeAPI{}
	b, repo := newTestBot(api)
	ctx := context.Background()

	update := telegram.Update{Message: &telegram.Message{
		From:    &telegram.User{ID: userID, Username: "player"},
		Chat:    telegram.Chat{ID: userID},
		Contact: &telegram.Contact{PhoneNumber: "+15550100", UserID: userID},
	}}
	b.handleUpdate(ctx, update)

	u, ok, _ := repo.GetUser(ctx, userID)
	if !ok || u.Phone != "+15550100" || u.State != game.UserStateRegistered {
		t.Fatalf("expected registered user with phone, got %+v", u)
	}
	if msg, _ := api.lastMessageTo(userID); msg.text != msgRegistered {
		t.Fatalf("expected registration confirmation, got %q", msg.text)
	}
}

// slowFirstScorer stalls on one marked guess so that concurrent handling
// of a user's messages would finish them out of order.
type slowFirstScorer struct{}

func (slowFirstScorer) Score(_ context.Context, submitted, _ string) (int, error) {
	if strings.Contains(submitted, "slow") {
		time.Sleep(50 * time.Millisecond)
	}
	return 10, nil
}

func TestSameUserGuessesProcessedInArrivalOrder(t *testing.T) {
	api := &fakeAPI{}
	repo := newFakeRepo()
	log := zap.NewNop()
	cfg := config.Config{AdminIDs: []int64{adminID}}
	b := New(api, cfg, repo,
		game.NewLifecycle(repo, log),
		game.NewCoordinator(repo, slowFirstScorer{}, game.CoordinatorConfig{MaxAttempts: 3}, log),
		game.NewAggregator(repo), log)
	ctx := context.Background()

	b.handleUpdate(ctx, adminMessage("/makegame some prompt", true))
	b.handleUpdate(ctx, adminMessage("/startgame", false))

	b.dispatch(ctx, userMessage("slow first guess"))
	b.dispatch(ctx, userMessage("second guess"))
	b.dispatch(ctx, userMessage("third guess"))

	deadline := time.Now().Add(2 * time.Second)
	for api.countMessagesTo(userID) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for replies, got %d", api.countMessagesTo(userID))
		}
		time.Sleep(5 * time.Millisecond)
	}

	gameID, _, _ := repo.CurrentActiveGame(ctx)
	results, _ := repo.ListResults(ctx, gameID)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{"slow first guess", "second guess", "third guess"}
	for i, text := range want {
		if results[i].Text != text {
			t.Fatalf("result %d = %q, want %q (arrival order lost)", i, results[i].Text, text)
		}
	}
}

func TestStartDuringJoinedRound(t *testing.T) {
	api := &fakeAPI{}
	b, repo := newTestBot(api)
	ctx := context.Background()

	b.handleUpdate(ctx, adminMessage("/makegame some prompt", true))
	b.handleUpdate(ctx, adminMessage("/startgame", false))
	b.handleUpdate(ctx, userMessage("a guess"))
	if err := repo.SetUserState(ctx, userID, game.UserStateRegistered); err != nil {
		t.Fatalf("set user state: %v", err)
	}

	b.handleUpdate(ctx, userMessage("/start"))
	if msg, _ := api.lastMessageTo(userID); msg.text != msgRoundInProgress {
		t.Fatalf("expected round-in-progress reply, got %q", msg.text)
	}
}

func TestSubscriptionGate(t *testing.T) {
	api := &fakeAPI{member: telegram.ChatMember{Status: "left"}}
	repo := newFakeRepo()
	log := zap.NewNop()
	cfg := config.Config{AdminIDs: []int64{adminID}, ChannelID: "@channel", ChannelLink: "https://t.me/channel"}
	b := New(api, cfg, repo,
		game.NewLifecycle(repo, log),
		game.NewCoordinator(repo, matchScorer{}, game.CoordinatorConfig{MaxAttempts: 1}, log),
		game.NewAggregator(repo), log)

	b.handleUpdate(context.Background(), userMessage("/start"))
	msg, ok := api.lastMessageTo(userID)
	if !ok || msg.text != msgSubscribeFirst {
		t.Fatalf("expected subscription prompt, got %+v", msg)
	}
	if msg.markup == nil {
		t.Fatal("expected channel link keyboard")
	}

	// Members pass the gate.
	api.member = telegram.ChatMember{Status: "member"}
	b.handleUpdate(context.Background(), userMessage("/help"))
	if msg, _ := api.lastMessageTo(userID); msg.text != msgHelp {
		t.Fatalf("expected help text for member, got %q", msg.text)
	}

	// The gate fails open on checker errors.
	api.memberErr = context.DeadlineExceeded
	b.handleUpdate(context.Background(), userMessage("/help"))
	if msg, _ := api.lastMessageTo(userID); msg.text != msgHelp {
		t.Fatalf("expected fail-open help text, got %q", msg.text)
	}
}

func TestStopGameWithNothingActive(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(api)

	b.handleUpdate(context.Background(), adminMessage("/stopgame", false))
	if msg, _ := api.lastMessageTo(adminID); msg.text != msgNoActiveGame {
		t.Fatalf("expected no-active-game reply, got %q", msg.text)
	}
}

func TestMakeGameWithoutPhoto(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(api)

	b.handleUpdate(context.Background(), adminMessage("/makegame some prompt", false))
	if msg, _ := api.lastMessageTo(adminID); msg.text != msgMakeGameUsage {
		t.Fatalf("expected usage reply, got %q", msg.text)
	}
}

func TestFormatStandings(t *testing.T) {
	ts := time.Now()
	standings := formatStandings([]game.Result{
		{UserID: 1, DisplayName: "ada", Score: 90, CreatedAt: ts},
		{UserID: 2, Score: 40, CreatedAt: ts},
	})
	if !strings.Contains(standings, "1. ada: 90") {
		t.Fatalf("expected named leader, got %q", standings)
	}
	if !strings.Contains(standings, "2. User 2: 40") {
		t.Fatalf("expected id fallback, got %q", standings)
	}
	if formatStandings(nil) != "Nobody submitted a guess this round." {
		t.Fatal("expected empty-round message")
	}
}
