package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sharefolio/tracker/internal/auth"
	"github.com/sharefolio/tracker/internal/domain"
	"github.com/sharefolio/tracker/internal/market"
	"github.com/sharefolio/tracker/internal/portfolio"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, auths *auth.Service, portfolios *portfolio.Service, markets *market.Service) *http.Server {
	authHandler := NewAuthHandler(auths)
	portfolioHandler := NewPortfolioHandler(portfolios)
	marketHandler := NewMarketHandler(markets)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/verify-email", authHandler.VerifyEmail)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/otp/verify", authHandler.VerifyOTP)
	mux.HandleFunc("POST /api/v1/auth/otp/resend", authHandler.ResendOTP)
	mux.HandleFunc("POST /api/v1/auth/password/forgot", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/password/reset", authHandler.ResetPassword)

	mux.HandleFunc("GET /api/v1/markets/nifty50", marketHandler.Nifty50)
	mux.HandleFunc("GET /api/v1/markets/sensex", marketHandler.Sensex)
	mux.HandleFunc("GET /api/v1/markets/movers", marketHandler.Movers)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireSession(auths, h))
	}
	authed("POST /api/v1/auth/logout", authHandler.Logout)
	authed("GET /api/v1/dashboard", portfolioHandler.GetDashboard)
	authed("GET /api/v1/accounts", portfolioHandler.ListAccounts)
	authed("POST /api/v1/accounts", portfolioHandler.CreateAccount)
	authed("DELETE /api/v1/accounts/{id}", portfolioHandler.DeleteAccount)
	authed("POST /api/v1/accounts/{id}/holdings", portfolioHandler.AddHolding)
	authed("DELETE /api/v1/holdings/{id}", portfolioHandler.RemoveHolding)
	authed("GET /api/v1/portfolio/export", portfolioHandler.ExportWorkbook)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type contextKey string

const userKey contextKey = "user"

// requireSession resolves the Bearer token to a user and stores it on the
// request context. Token comparison happens in the database; session tokens
// are high-entropy random strings, so timing is not a concern the way a
// shared API key would be.
func requireSession(auths *auth.Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if !strings.HasPrefix(header, "Bearer ") || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := auths.UserFromSession(r.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				slog.Error("failed to resolve session", "error", err)
			}
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the authenticated user placed by requireSession.
func userFrom(r *http.Request) domain.User {
	user, _ := r.Context().Value(userKey).(domain.User)
	return user
}

// sessionToken returns the raw Bearer token from the request.
func sessionToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
