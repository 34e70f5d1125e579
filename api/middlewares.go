package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
)

// requireAuthenticatedUser verifies the bearer token and attaches the user it
// names to the request context. Handlers behind it can rely on
// contextGetUser returning a non-nil user.
func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedResponse(w, r, "not authorized, no token")
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedResponse(w, r, "not authorized, no token")
			return
		}

		claims, err := app.tokens.verify(parts[1])
		if err != nil {
			log.Println(err)
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		u, err := app.users.getUserByID(r.Context(), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, errRecordNotFound):
				app.unauthorizedResponse(w, r, "not authorized, user no longer exists")
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}
		u.PasswordHash = nil

		next.ServeHTTP(w, contextSetUser(r, u))
	}
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// enableCORS lets the browser client call the API from the trusted origins.
// Without any configured origin no CORS headers are sent.
func (app *application) enableCORS(next http.Handler) http.Handler {
	if len(app.config.cors.trustedOrigins) == 0 {
		return next
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: app.config.cors.trustedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})(next)
}

type userContext string

const userContextKey userContext = "user"

func contextSetUser(r *http.Request, u *user) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, u)
	return r.WithContext(ctx)
}

func contextGetUser(r *http.Request) *user {
	u, ok := r.Context().Value(userContextKey).(*user)
	if !ok {
		panic("missing user value in request context")
	}
	return u
}
