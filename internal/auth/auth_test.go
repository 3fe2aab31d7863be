package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"towerdefense/internal/data"
)

func signIn(t *testing.T, a *Auth, cookies ...*http.Cookie) (*httptest.ResponseRecorder, identityResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/anonymous", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.AnonymousHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body identityResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec, body
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAnonymousSignInIsSticky(t *testing.T) {
	a := New("test-secret")

	rec, first := signIn(t, a)
	if !first.New || !strings.HasPrefix(first.UserID, "u_") {
		t.Fatalf("first sign in = %+v", first)
	}
	if first.Username != data.DefaultName {
		t.Errorf("username = %q, want %q", first.Username, data.DefaultName)
	}
	c := cookieNamed(rec, UserCookie)
	if c == nil {
		t.Fatal("no identity cookie set")
	}

	_, again := signIn(t, a, c)
	if again.New || again.UserID != first.UserID {
		t.Errorf("second sign in = %+v, want the same uid", again)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	uid, err := a.Identify(req)
	if err != nil || uid != first.UserID {
		t.Errorf("Identify = %q, %v", uid, err)
	}
}

func TestIdentifyRejectsForgery(t *testing.T) {
	a := New("test-secret")
	other := New("other-secret")

	tests := []struct {
		name  string
		value string
		want  error
	}{
		{"no cookie", "", ErrNoIdentity},
		{"unsigned", "u_123", ErrBadIdentity},
		{"bad encoding", "u_123.!!!", ErrBadIdentity},
		{"wrong key", other.sign("u_123"), ErrBadIdentity},
		{"swapped uid", "u_999" + a.sign("u_123")[len("u_123"):], ErrBadIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.value != "" {
				req.AddCookie(&http.Cookie{Name: UserCookie, Value: tt.value})
			}
			if _, err := a.Identify(req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRandomKeyStillVerifies(t *testing.T) {
	a := New("")
	uid, err := a.verify(a.sign("u_abc"))
	if err != nil || uid != "u_abc" {
		t.Fatalf("verify = %q, %v", uid, err)
	}
}

func TestUsernameHandler(t *testing.T) {
	a := New("s")

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"trimmed", `{"username":"  Ada Lovelace  "}`, http.StatusOK, "Ada Lovelace"},
		{"capped", `{"username":"` + strings.Repeat("z", 40) + `"}`, http.StatusOK, strings.Repeat("z", data.MaxNameLen)},
		{"blank", `{"username":"   "}`, http.StatusBadRequest, ""},
		{"bad json", `{`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.UsernameHandler(rec, httptest.NewRequest(http.MethodPost, "/api/username", strings.NewReader(tt.body)))
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}

			c := cookieNamed(rec, NameCookie)
			if c == nil {
				t.Fatal("no username cookie")
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			if got := Username(req); got != tt.want {
				t.Errorf("Username = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUsernameDefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := Username(req); got != data.DefaultName {
		t.Errorf("Username = %q, want %q", got, data.DefaultName)
	}
}
