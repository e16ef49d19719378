package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talkgram/talkgram/services/genai"
	"talkgram/talkgram/session"
	"talkgram/talkgram/sources/psql/dao"
	"talkgram/talkgram/utils/logging"
)

// Generator is the slice of the generation client the chat flow needs.
type Generator interface {
	Run(ctx context.Context, req genai.Request) (string, error)
	RunStream(ctx context.Context, req genai.Request) (<-chan string, error)
}

// ChatController orchestrates one conversation turn: validate, debit on
// start, assemble the context window, call the generation provider and
// append the reply to the transcript.
type ChatController struct {
	userDAO  *dao.UserDAO
	store    session.Store
	gen      Generator
	persona  genai.Persona
	cooldown time.Duration
}

func NewChatController(userDAO *dao.UserDAO, store session.Store, gen Generator, persona genai.Persona, cooldown time.Duration) *ChatController {
	return &ChatController{
		userDAO:  userDAO,
		store:    store,
		gen:      gen,
		persona:  persona,
		cooldown: cooldown,
	}
}

// StartConversation charges one credit and opens a fresh session whose
// transcript holds only the fixed greeting. A zero balance blocks the start
// without any debit. The balance check and the debit are two separate
// store operations, so two tabs racing here can both pass the check.
func (c *ChatController) StartConversation(ctx context.Context, uid string) (*session.ChatSession, int, error) {
	credits, err := c.userDAO.GetCredits(ctx, uid)
	if err != nil {
		return nil, 0, err
	}
	if credits <= 0 {
		return nil, credits, ErrInsufficientCredit
	}

	if err := c.userDAO.DecrementCredit(ctx, uid); err != nil {
		return nil, credits, err
	}

	sess := &session.ChatSession{
		ID:     uuid.New().String(),
		UserID: uid,
		State:  session.StateIdle,
		History: []genai.Message{
			{Role: "assistant", Text: c.persona.Greeting},
		},
	}
	if err := c.store.Create(ctx, sess); err != nil {
		// the debit is not rolled back here, matching the product's
		// known correctness gap
		return nil, credits - 1, err
	}
	return sess, credits - 1, nil
}

// GetSession returns the caller's session, or ErrNoActiveChat when it does
// not exist or belongs to someone else.
func (c *ChatController) GetSession(ctx context.Context, uid, sessionID string) (*session.ChatSession, error) {
	sess, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != uid {
		return nil, ErrNoActiveChat
	}
	return sess, nil
}

// SendMessage runs one turn. Validation happens before any network call;
// a generation failure becomes the fixed apology message in the transcript
// rather than an error, and the session stays usable.
func (c *ChatController) SendMessage(ctx context.Context, uid, sessionID, text string) (string, error) {
	defer logging.LogDuration(ctx, "chat_send_message")()

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	sess, err := c.GetSession(ctx, uid, sessionID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := sess.BeginSend(now); err != nil {
		return "", err
	}
	if err := c.store.Update(ctx, sess); err != nil {
		return "", err
	}

	history := sess.History
	sess.Append("user", text)

	reply, err := c.gen.Run(ctx, genai.Request{History: history, Content: text})
	if err != nil {
		logging.ErrorLogger.Error("generation failed",
			zap.String("session_id", sessionID), zap.Error(err))
		reply = c.persona.Apology
	}
	sess.Append("assistant", reply)

	if err := sess.FinishSend(time.Now(), c.cooldown); err != nil {
		return "", err
	}
	if err := c.store.Update(ctx, sess); err != nil {
		return "", err
	}
	return reply, nil
}

// SendMessageStream is the streaming variant: chunks are forwarded to the
// caller as they arrive and the full reply is appended to the transcript
// when the stream ends.
func (c *ChatController) SendMessageStream(ctx context.Context, uid, sessionID, text string) (chan string, chan error) {
	ch := make(chan string)
	errCh := make(chan error, 1)

	fail := func(err error) (chan string, chan error) {
		errCh <- err
		close(ch)
		close(errCh)
		return ch, errCh
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fail(ErrEmptyMessage)
	}

	sess, err := c.GetSession(ctx, uid, sessionID)
	if err != nil {
		return fail(err)
	}
	if err := sess.BeginSend(time.Now()); err != nil {
		return fail(err)
	}
	if err := c.store.Update(ctx, sess); err != nil {
		return fail(err)
	}

	history := sess.History
	sess.Append("user", text)

	src, err := c.gen.RunStream(ctx, genai.Request{History: history, Content: text})
	if err != nil {
		logging.ErrorLogger.Error("generation stream failed",
			zap.String("session_id", sessionID), zap.Error(err))
		c.closeTurn(sess, c.persona.Apology)
		return fail(err)
	}

	go func() {
		defer close(ch)
		defer close(errCh)

		var full strings.Builder
		for chunk := range src {
			full.WriteString(chunk)
			select {
			case ch <- chunk:
			case <-ctx.Done():
				c.closeTurn(sess, c.persona.Fallback)
				return
			}
		}

		reply := full.String()
		if reply == "" {
			reply = c.persona.Fallback
		}
		if err := c.closeTurn(sess, reply); err != nil {
			errCh <- err
		}
	}()

	return ch, errCh
}

// closeTurn appends the assistant reply and persists the finished turn with
// a short background deadline, since the request context may already be gone.
func (c *ChatController) closeTurn(sess *session.ChatSession, reply string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess.Append("assistant", reply)
	if err := sess.FinishSend(time.Now(), c.cooldown); err != nil {
		return err
	}
	return c.store.Update(ctx, sess)
}
