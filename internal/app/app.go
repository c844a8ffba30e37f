package app

import (
	"fmt"
	"net/http"
	"setpass/internal/app/deps"
	"setpass/internal/app/services"
	"setpass/internal/http/handlers/auth"
	"setpass/internal/http/handlers/healthz"
	issuetoken "setpass/internal/http/handlers/issue_token"
	redeemtoken "setpass/internal/http/handlers/redeem_token"
	viewform "setpass/internal/http/handlers/view_form"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(deps *deps.Deps, s *services.Services) http.Handler {
	isPinRequired := deps.Config.RequirePin

	tokenRouter := chi.NewRouter()
	tokenRouter.Use(auth.SetAdminTokenToContext)
	tokenRouter.Method(http.MethodPut, "/{identity}", issuetoken.New(s.IssueToken))

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Method(http.MethodGet, "/", viewform.New(isPinRequired))
	router.Method(http.MethodPost, "/", redeemtoken.New(s.RedeemToken, isPinRequired))
	router.Mount("/token", tokenRouter)
	router.Method(http.MethodGet, "/healthz", healthz.New(deps.Logger, deps.HealthChecker))
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	return router
}

func InitHttpServer(deps *deps.Deps, s *services.Services) *http.Server {
	address := fmt.Sprintf("0.0.0.0:%d", deps.Config.Port)

	return &http.Server{
		Handler:           NewRouter(deps, s),
		Addr:              address,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
