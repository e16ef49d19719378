package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"talkgram/talkgram/config"
	"talkgram/talkgram/controllers"
	"talkgram/talkgram/middlewares"
)

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
			uid, ok := r.Context().Value(middlewares.UserUIDKey).(string)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			user, err := ctrl.GetUser(r.Context(), uid)
			if err != nil {
				return nil, 0, err
			}
			return user, http.StatusOK, nil
		}))
	})

	return r
}
