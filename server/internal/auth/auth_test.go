package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/zhaobenny/babylog/server/internal/store"
)

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("correct horse", hash) {
		t.Fatalf("password should match its hash")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("wrong password matched")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	t.Parallel()

	a, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	b, _ := GenerateAPIKey()
	if !strings.HasPrefix(a, "babylog_") || len(a) != len("babylog_")+64 {
		t.Fatalf("unexpected key format %q", a)
	}
	if a == b {
		t.Fatalf("keys should be random")
	}
}

func newMiddleware(t *testing.T) (*Middleware, *scs.SessionManager) {
	t.Helper()
	s, err := store.New([]store.User{{Username: "alice", PasswordHash: "x", APIKey: "babylog_a"}})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	sm := scs.New()
	return NewMiddleware(s, sm), sm
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if u := GetUser(r.Context()); u != nil {
		w.Write([]byte(u.Username))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestRequireAPIKey(t *testing.T) {
	t.Parallel()

	m, _ := newMiddleware(t)
	h := m.RequireAPIKey(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		value  string
		status int
		body   string
	}{
		{"header", "X-API-Key", "babylog_a", http.StatusOK, "alice"},
		{"bearer", "Authorization", "Bearer babylog_a", http.StatusOK, "alice"},
		{"missing", "", "", http.StatusUnauthorized, "API key required"},
		{"invalid", "X-API-Key", "babylog_zzz", http.StatusUnauthorized, "Invalid API key"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.status)
		}
		if !strings.Contains(rec.Body.String(), tc.body) {
			t.Fatalf("%s: body = %q, want %q", tc.name, rec.Body.String(), tc.body)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	m, sm := newMiddleware(t)
	protected := m.RequireAuth(http.HandlerFunc(echoUser))

	mux := http.NewServeMux()
	mux.Handle("/partial/daily-table", protected)
	mux.Handle("/logout", protected)
	mux.HandleFunc("/test-login", func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), SessionUserKey, r.URL.Query().Get("id"))
	})
	h := sm.LoadAndSave(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("page without session: status %d, want redirect", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partial/daily-table", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("fragment without session: status %d, want 401", rec.Code)
	}

	login := func(id string) *http.Cookie {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-login?id="+id, nil))
		cookies := rec.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatalf("no session cookie set")
		}
		return cookies[0]
	}

	req := httptest.NewRequest(http.MethodGet, "/partial/daily-table", nil)
	req.AddCookie(login("alice"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "alice" {
		t.Fatalf("with session: status %d body %q", rec.Code, rec.Body.String())
	}

	// a session pointing at a removed account is dropped
	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(login("ghost"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("unknown user: status %d, want redirect", rec.Code)
	}
}
