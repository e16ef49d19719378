package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"talkgram/talkgram/config"
	"talkgram/talkgram/controllers"
	"talkgram/talkgram/routes"
	"talkgram/talkgram/services/genai"
	"talkgram/talkgram/session"
	"talkgram/talkgram/sources/psql"
	"talkgram/talkgram/sources/psql/dao"
	"talkgram/talkgram/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	userDAO := dao.NewUserDAO(db.DB)
	referralDAO := dao.NewReferralDAO(db.DB)

	store, err := newSessionStore(cfg)
	if err != nil {
		logging.ErrorLogger.Error("session store error: " + err.Error())
		os.Exit(1)
	}
	defer store.Close()

	persona := genai.LoadPersona(cfg.PersonaPath)
	genClient := genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, persona)

	authCtrl := controllers.NewAuthController(userDAO, referralDAO, cfg)
	userCtrl := controllers.NewUserController(userDAO)
	chatCtrl := controllers.NewChatController(userDAO, store, genClient, persona, cfg.Cooldown)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/users", routes.UserRoutes(userCtrl, cfg))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error: " + err.Error())
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error: " + err.Error())
	}
	logging.AppLogger.Info("server shutdown complete")
}

// newSessionStore picks the Redis driver when an address is configured and
// falls back to the in-memory driver otherwise.
func newSessionStore(cfg config.Config) (session.Store, error) {
	if cfg.RedisAddr == "" {
		return session.NewStore(session.StoreTypeMemory)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return session.NewStore(session.StoreTypeRedis,
		session.WithRedisClient(client),
		session.WithRedisTTL(cfg.SessionTTL),
	)
}
