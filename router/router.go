package router

import (
	"jwt-auth-api/handler"
	"jwt-auth-api/model"
	"net/http"

	_ "jwt-auth-api/docs"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(
	authHandler *handler.AuthHandler,
	healthHandler *handler.HealthHandler,
	authenticator handler.Authenticator,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	mux.Handle("POST /api/auth/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("POST /api/auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	mux.Handle("POST /api/auth/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))

	mux.Handle("GET /api/me", handler.RequireAuth(handler.ErrorHandlingMiddleware(authHandler.Me)))
	mux.Handle("GET /api/admin/ping", handler.RequireRole(model.RoleAdmin, handler.ErrorHandlingMiddleware(authHandler.AdminPing)))

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(handler.RequestLogger(handler.Authenticate(authenticator)(mux)))
}
