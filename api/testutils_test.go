package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// memStore keeps users and tasks in maps and hands out copies, so handlers
// cannot mutate stored state without going through the store.
type memStore struct {
	mu    sync.Mutex
	users map[string]user
	tasks map[string]task
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]user),
		tasks: make(map[string]task),
	}
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) getUserByEmail(_ context.Context, email string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errRecordNotFound
}

func (s *memStore) getUserByID(_ context.Context, id string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return &u, nil
}

func (s *memStore) insertUser(_ context.Context, u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return errDuplicateEmail
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *memStore) updateUser(_ context.Context, u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return errRecordNotFound
	}
	s.users[u.ID] = *u
	return nil
}

func (s *memStore) getTasksForUser(_ context.Context, userID string) ([]*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := []*task{}
	for _, t := range s.tasks {
		if t.UserID == userID {
			t := t
			tasks = append(tasks, &t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (s *memStore) getTaskByID(_ context.Context, id string) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return &t, nil
}

func (s *memStore) insertTask(_ context.Context, t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) updateTask(_ context.Context, t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return errRecordNotFound
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) deleteTask(_ context.Context, t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return errRecordNotFound
	}
	delete(s.tasks, t.ID)
	return nil
}

func (s *memStore) getTaskStatusCounts(_ context.Context, userID string) ([]statusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make(map[[2]string]int)
	for _, t := range s.tasks {
		if t.UserID == userID {
			groups[[2]string{t.Category, t.Status}]++
		}
	}
	var counts []statusCount
	for k, n := range groups {
		counts = append(counts, statusCount{Category: k[0], Status: k[1], Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Category != counts[j].Category {
			return counts[i].Category < counts[j].Category
		}
		return counts[i].Status < counts[j].Status
	})
	return counts, nil
}

type sentMail struct {
	recipient    string
	templateFile string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) send(recipient, templateFile string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, templateFile: templateFile})
	return nil
}

func (m *recordingMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

const testSecret = "test-secret"

func newTestApplication(t *testing.T) (*application, *memStore) {
	t.Helper()
	store := newMemStore()
	app := &application{
		users:  store,
		tasks:  store,
		tokens: newTokenService(testSecret, 30*24*time.Hour),
	}
	app.config.env = "testing"
	return app, store
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &testServer{ts}
}

// do sends a JSON request and returns the status code and raw body.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			js, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			reader = bytes.NewReader(js)
		}
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rs, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()

	data, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}
	return rs.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func errorMessage(t *testing.T, data []byte) string {
	t.Helper()
	return decode[map[string]string](t, data)["message"]
}

func newJSONRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}

// register creates an account through the API and returns its auth response.
func register(t *testing.T, ts *testServer, name, email, password string) authResponse {
	t.Helper()
	code, body := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, code, body)
	}
	return decode[authResponse](t, body)
}
