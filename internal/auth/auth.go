package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"towerdefense/internal/data"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const (
	UserCookie = "td_uid"
	NameCookie = "td_name"

	cookieMaxAge = 365 * 24 * time.Hour
)

var (
	ErrNoIdentity  = errors.New("missing identity cookie")
	ErrBadIdentity = errors.New("identity cookie signature mismatch")
)

// Auth hands out anonymous player identities. A uid is only trusted when it
// carries a MAC under the server key, so players cannot post scores under
// someone else's uid.
type Auth struct {
	key []byte
}

// New derives the signing key from secret. An empty secret gets a random
// key, which invalidates every identity on restart.
func New(secret string) *Auth {
	var key [32]byte
	if secret == "" {
		if _, err := rand.Read(key[:]); err != nil {
			panic("auth: no randomness: " + err.Error())
		}
		log.Println("[AUTH] SESSION_SECRET not set, identities will not survive a restart")
	} else {
		key = blake2b.Sum256([]byte(secret))
	}
	return &Auth{key: key[:]}
}

type identityResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	New      bool   `json:"new"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

// AnonymousHandler signs the caller in anonymously, keeping the uid they
// already hold if its signature checks out.
func (a *Auth) AnonymousHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uid, err := a.Identify(r)
	fresh := err != nil
	if fresh {
		uid = "u_" + uuid.NewString()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     UserCookie,
		Value:    a.sign(uid),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(identityResponse{
		UserID:   uid,
		Username: Username(r),
		New:      fresh,
	})
}

// UsernameHandler stores the display name used for leaderboard entries.
func (a *Auth) UsernameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		http.Error(w, "empty username", http.StatusBadRequest)
		return
	}
	name := data.NormalizeName(req.Username)

	http.SetCookie(w, &http.Cookie{
		Name:     NameCookie,
		Value:    url.QueryEscape(name),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"username": name})
}

// Identify returns the verified uid of the caller.
func (a *Auth) Identify(r *http.Request) (string, error) {
	c, err := r.Cookie(UserCookie)
	if err != nil || c.Value == "" {
		return "", ErrNoIdentity
	}
	return a.verify(c.Value)
}

// Username returns the caller's display name, "Anonymous" when unset.
func Username(r *http.Request) string {
	c, err := r.Cookie(NameCookie)
	if err != nil {
		return data.DefaultName
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil {
		return data.DefaultName
	}
	return data.NormalizeName(name)
}

func (a *Auth) mac(uid string) []byte {
	h, err := blake2b.New256(a.key)
	if err != nil {
		// Only fails for keys over 64 bytes.
		panic(err)
	}
	h.Write([]byte(uid))
	return h.Sum(nil)
}

func (a *Auth) sign(uid string) string {
	return uid + "." + base64.RawURLEncoding.EncodeToString(a.mac(uid))
}

func (a *Auth) verify(value string) (string, error) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", ErrBadIdentity
	}
	uid, sig := value[:i], value[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrBadIdentity
	}
	if subtle.ConstantTimeCompare(got, a.mac(uid)) != 1 {
		return "", ErrBadIdentity
	}
	return uid, nil
}
