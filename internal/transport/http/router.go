package http

import (
	"net/http"

	"github.com/centry-onboarding/internal/application/onboarding"
	"github.com/centry-onboarding/internal/config"
	"github.com/centry-onboarding/internal/transport/http/handler"
	appmiddleware "github.com/centry-onboarding/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(appmiddleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	onboardingSvc := onboarding.NewService(onboarding.ServiceDeps{
		Accounts: deps.Accounts,
		Notifier: deps.Notifier,
		Hasher:   deps.Hasher,
		Logger:   log.Named("onboarding"),
		Now:      deps.Now,
	})

	healthH := handler.NewHealthHandler(deps.Accounts, log)
	authH := handler.NewOnboardingHandler(onboardingSvc, log)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Check)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/verify", authH.Verify)
			r.Post("/resend-code", authH.ResendCode)
			r.Post("/create-pin", authH.CreatePIN)
		})
	})

	return r
}
