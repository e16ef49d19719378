package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"talkgram/talkgram/services/genai"
	"talkgram/talkgram/session"
	"talkgram/talkgram/sources/psql/dao"
	"talkgram/talkgram/sources/psql/models"
	"talkgram/talkgram/utils/logging"
)

type fakeGen struct {
	reply   string
	err     error
	calls   int
	lastReq genai.Request
}

func (f *fakeGen) Run(ctx context.Context, req genai.Request) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGen) RunStream(ctx context.Context, req genai.Request) (<-chan string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan string, 1)
	ch <- f.reply
	close(ch)
	return ch, nil
}

type chatTestEnv struct {
	ctrl    *ChatController
	userDAO *dao.UserDAO
	store   session.Store
	gen     *fakeGen
	persona genai.Persona
}

func setupChatTest(t *testing.T, cooldown time.Duration) *chatTestEnv {
	t.Helper()
	logging.InitLoggerDir(t.TempDir())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Referral{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store, err := session.NewStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	userDAO := dao.NewUserDAO(db)
	gen := &fakeGen{reply: "Olá!"}
	persona := genai.DefaultPersona()

	return &chatTestEnv{
		ctrl:    NewChatController(userDAO, store, gen, persona, cooldown),
		userDAO: userDAO,
		store:   store,
		gen:     gen,
		persona: persona,
	}
}

func (e *chatTestEnv) seedUser(t *testing.T, uid string, credits int) {
	t.Helper()
	_, _, err := e.userDAO.EnsureUser(context.Background(), uid, "Maria", "maria@example.com", nil, nil, credits)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func TestStartConversationBlockedWithoutCredits(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 0)
	ctx := context.Background()

	_, _, err := env.ctrl.StartConversation(ctx, "u1")
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}

	credits, err := env.userDAO.GetCredits(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCredits failed: %v", err)
	}
	if credits != 0 {
		t.Errorf("blocked start must not debit, balance = %d", credits)
	}
}

func TestStartConversationDebitsAndResetsHistory(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 1)
	ctx := context.Background()

	sess, remaining, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected 0 credits remaining, got %d", remaining)
	}

	credits, _ := env.userDAO.GetCredits(ctx, "u1")
	if credits != 0 {
		t.Errorf("expected stored balance 0, got %d", credits)
	}

	if len(sess.History) != 1 {
		t.Fatalf("expected single greeting message, got %d", len(sess.History))
	}
	if sess.History[0].Role != "assistant" || sess.History[0].Text != env.persona.Greeting {
		t.Errorf("expected fixed greeting, got %+v", sess.History[0])
	}
	if sess.EffectiveState(time.Now()) != session.StateIdle {
		t.Errorf("expected new session idle, got %s", sess.State)
	}
}

func TestSendMessageEmptyInputNeverCallsProvider(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	for _, input := range []string{"", "   ", "\n\t "} {
		if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, input); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("input %q: expected ErrEmptyMessage, got %v", input, err)
		}
	}
	if env.gen.calls != 0 {
		t.Errorf("empty input must not reach the provider, calls = %d", env.gen.calls)
	}

	got, _ := env.store.Get(ctx, sess.ID)
	if len(got.History) != 1 {
		t.Errorf("empty input must not mutate history, len = %d", len(got.History))
	}
}

func TestSendMessageAppendsExactlyOneReply(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	reply, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "oi")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply != "Olá!" {
		t.Errorf("expected reply Olá!, got %q", reply)
	}
	if env.gen.lastReq.Content != "oi" {
		t.Errorf("expected provider to see the new message, got %q", env.gen.lastReq.Content)
	}

	got, _ := env.store.Get(ctx, sess.ID)
	if len(got.History) != 3 {
		t.Fatalf("expected greeting + user + assistant, got %d messages", len(got.History))
	}
	if got.History[1].Role != "user" || got.History[1].Text != "oi" {
		t.Errorf("unexpected user turn: %+v", got.History[1])
	}
	if got.History[2].Role != "assistant" || got.History[2].Text != "Olá!" {
		t.Errorf("unexpected assistant turn: %+v", got.History[2])
	}
	if got.EffectiveState(time.Now()) != session.StateIdle {
		t.Errorf("expected idle after turn, got %s", got.State)
	}
}

func TestSendMessageFailureAppendsApologyAndStaysUsable(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	env.gen.err = &genai.UpstreamError{StatusCode: http.StatusInternalServerError, Body: "boom"}
	reply, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "oi")
	if err != nil {
		t.Fatalf("generation failure must not surface as an error, got %v", err)
	}
	if reply != env.persona.Apology {
		t.Errorf("expected apology, got %q", reply)
	}

	got, _ := env.store.Get(ctx, sess.ID)
	if len(got.History) != 3 {
		t.Fatalf("expected exactly one assistant message appended, got %d total", len(got.History))
	}
	if got.History[2].Text != env.persona.Apology {
		t.Errorf("expected apology in transcript, got %q", got.History[2].Text)
	}
	if got.EffectiveState(time.Now()) != session.StateIdle {
		t.Errorf("expected idle after failed turn, got %s", got.State)
	}

	// the session remains usable
	env.gen.err = nil
	if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "ainda aí?"); err != nil {
		t.Errorf("expected next turn to work, got %v", err)
	}
}

func TestSendMessageCooldownBlocksResubmit(t *testing.T) {
	env := setupChatTest(t, 5*time.Second)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "oi"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "de novo"); !errors.Is(err, session.ErrCooldownActive) {
		t.Errorf("expected ErrCooldownActive, got %v", err)
	}
}

func TestSendMessageWhileSendingRejected(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	stored, _ := env.store.Get(ctx, sess.ID)
	stored.State = session.StateSending
	if err := env.store.Update(ctx, stored); err != nil {
		t.Fatalf("failed to force sending state: %v", err)
	}

	if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "oi"); !errors.Is(err, session.ErrAlreadySending) {
		t.Errorf("expected ErrAlreadySending, got %v", err)
	}
}

func TestSendMessageWithoutActiveChat(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	if _, err := env.ctrl.SendMessage(ctx, "u1", "no-such-session", "oi"); !errors.Is(err, ErrNoActiveChat) {
		t.Errorf("expected ErrNoActiveChat for missing session, got %v", err)
	}

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}
	if _, err := env.ctrl.SendMessage(ctx, "other-user", sess.ID, "oi"); !errors.Is(err, ErrNoActiveChat) {
		t.Errorf("expected ErrNoActiveChat for foreign session, got %v", err)
	}
}

func TestSendMessagePassesBoundedHistory(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "primeira"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	// the provider sees the history as it was before the new user turn
	if _, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "segunda"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(env.gen.lastReq.History) != 3 {
		t.Errorf("expected 3 prior messages in request history, got %d", len(env.gen.lastReq.History))
	}
	if env.gen.lastReq.Content != "segunda" {
		t.Errorf("expected new message separate from history, got %q", env.gen.lastReq.Content)
	}
}

// Round trip through the real generation client against a mocked provider.
func TestRoundTripWithMockedProvider(t *testing.T) {
	env := setupChatTest(t, 0)
	env.seedUser(t, "u1", 5)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Olá!"}]}}]}`))
	}))
	defer srv.Close()

	client := genai.NewClient("test-key", "gemini-test", env.persona)
	client.SetBaseURL(srv.URL)
	env.ctrl.gen = client

	sess, _, err := env.ctrl.StartConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}
	reply, err := env.ctrl.SendMessage(ctx, "u1", sess.ID, "oi")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply != "Olá!" {
		t.Errorf("expected Olá!, got %q", reply)
	}
}
