package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAuthenticatedUser(t *testing.T) {
	app, store := newTestApplication(t)
	u := &user{ID: "user-1", Name: "Ada", Email: "ada@example.com", PasswordHash: []byte("hash")}
	store.users[u.ID] = *u

	token, err := app.tokens.issue(u)
	if err != nil {
		t.Fatal(err)
	}
	ghost, err := app.tokens.issue(&user{ID: "deleted-user"})
	if err != nil {
		t.Fatal(err)
	}
	expiredService := newTokenService(testSecret, time.Minute)
	expiredService.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredService.issue(u)
	if err != nil {
		t.Fatal(err)
	}

	var seen *user
	next := func(w http.ResponseWriter, r *http.Request) {
		seen = contextGetUser(r)
		w.WriteHeader(http.StatusTeapot)
	}
	h := app.requireAuthenticatedUser(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusTeapot},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"lowercase scheme", "bearer " + token, http.StatusUnauthorized},
		{"scheme only", "Bearer", http.StatusUnauthorized},
		{"extra parts", "Bearer " + token + " extra", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"user no longer exists", "Bearer " + ghost, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			h(rr, r)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want != http.StatusTeapot && seen != nil {
				t.Fatalf("handler ran for rejected request")
			}
		})
	}

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	h(rr, r)
	if seen == nil || seen.ID != u.ID {
		t.Fatalf("context user = %+v, want %s", seen, u.ID)
	}
	if seen.PasswordHash != nil {
		t.Fatalf("context user carries a password hash")
	}
}

func TestRecoverPanic(t *testing.T) {
	app, _ := newTestApplication(t)
	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got := rr.Header().Get("Connection"); got != "close" {
		t.Fatalf("Connection = %q, want close", got)
	}
}

func TestEnableCORS(t *testing.T) {
	app, _ := newTestApplication(t)
	app.config.cors.trustedOrigins = []string{"http://localhost:5173"}
	h := composeRoutes(app)

	r := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", http.MethodPut)
	r.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
	r.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("untrusted origin allowed: %q", got)
	}
}
