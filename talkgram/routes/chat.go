package routes

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"talkgram/talkgram/config"
	"talkgram/talkgram/controllers"
	"talkgram/talkgram/middlewares"
	"talkgram/talkgram/utils/types"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat/conversations : charge one credit, open a fresh session
		gr.Post("/conversations", handleJSON(func(r *http.Request) (any, int, error) {
			uid := r.Context().Value(middlewares.UserUIDKey).(string)
			sess, remaining, err := ctrl.StartConversation(r.Context(), uid)
			if err != nil {
				return nil, 0, err
			}
			return types.StartConversationResponse{
				SessionID:        sess.ID,
				CreditsRemaining: remaining,
			}, http.StatusOK, nil
		}))

		// POST /chat/ : send one message on an active session
		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.ChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, 0, errInvalidBody
			}
			uid := r.Context().Value(middlewares.UserUIDKey).(string)
			reply, err := ctrl.SendMessage(r.Context(), uid, req.SessionID, req.Content)
			if err != nil {
				return nil, 0, err
			}
			return types.ChatResponse{Reply: reply, SessionID: req.SessionID}, http.StatusOK, nil
		}))

		// GET /chat/session/{session_id} : session state + transcript
		gr.Get("/session/{session_id}", handleJSON(func(r *http.Request) (any, int, error) {
			uid := r.Context().Value(middlewares.UserUIDKey).(string)
			sessionID := chi.URLParam(r, "session_id")
			sess, err := ctrl.GetSession(r.Context(), uid, sessionID)
			if err != nil {
				return nil, 0, err
			}
			return sess, http.StatusOK, nil
		}))
	})

	// streaming variant over websocket; the token travels in the first frame
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token       string            `json:"token"`
			ChatRequest types.ChatRequest `json:"chat_request"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}

		uid, err := middlewares.ParseToken(input.Token, cfg.JWTSecret)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		ch, errCh := ctrl.SendMessageStream(ctx, uid, input.ChatRequest.SessionID, input.ChatRequest.Content)
		go func() {
			if err := <-errCh; err != nil {
				payload, _ := json.Marshal(map[string]string{"error": err.Error()})
				conn.Write(ctx, websocket.MessageText, payload)
				conn.Close(websocket.StatusInternalError, "stream error")
			}
		}()

		for chunk := range ch {
			if err := conn.Write(ctx, websocket.MessageText, []byte(chunk)); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})

	return r
}
