package api

import (
	"net/http"
	"time"

	"sheet_analytics/internal/api/handler"
	"sheet_analytics/internal/api/middleware"
	"sheet_analytics/internal/app/service"
	"sheet_analytics/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authService *service.AuthService,
	adminService *service.AdminService,
	requestService *service.RoleRequestService,
	sheetService *service.SheetService,
	insightService *service.InsightService,
	authMW *middleware.Auth,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the Authorization bearer token and puts claims in context;
	// authMW.Authenticate does the rest (expiry, user lookup).
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(adminService)
	requestHandler := handler.NewRoleRequestHandler(requestService)
	sheetHandler := handler.NewSheetHandler(sheetService)
	insightHandler := handler.NewInsightHandler(insightService)

	// Public auth routes
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	// Authenticated routes
	r.Group(func(priv chi.Router) {
		priv.Use(authMW.Authenticate)

		priv.Get("/profile", authHandler.Profile)

		priv.Post("/upload", sheetHandler.Upload)
		priv.Get("/sheets", sheetHandler.History)
		priv.Get("/sheets/{sheetID}", sheetHandler.Get)
		priv.Delete("/sheets/{sheetID}", sheetHandler.Delete)
		priv.Post("/insights", insightHandler.Insights)

		priv.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			admin.Get("/users", adminHandler.ListUsers)
			admin.Get("/metrics/users", adminHandler.UserCount)
			admin.Get("/metrics/files", adminHandler.FileCount)
			admin.Post("/role-request", requestHandler.Submit)
			admin.Get("/role-requests", requestHandler.List)
		})

		priv.Group(func(sa chi.Router) {
			sa.Use(middleware.RequireSuperadmin)
			sa.Put("/users/{userID}/role", adminHandler.ChangeRole)
			sa.Delete("/users/{userID}", adminHandler.DeleteUser)
			sa.Put("/role-request/{requestID}", requestHandler.Resolve)
		})
	})

	return r
}
