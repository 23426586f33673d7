package auth

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gobble/server/ledger"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type userStore struct {
	mu    sync.RWMutex
	path  string
	users map[string]*User
}

func newUserStore(path string) (*userStore, error) {
	us := &userStore{path: path, users: map[string]*User{}}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return us, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &us.users); err != nil {
		return nil, fmt.Errorf("auth: decode %s: %w", path, err)
	}
	return us, nil
}

// save persists the user table through a tmp file and rename. Callers must
// hold mu so concurrent registrations cannot interleave their writes.
func (s *userStore) save() error {
	b, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *userStore) exists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[strings.ToLower(username)]
	return ok
}

func (s *userStore) get(username string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(username)]
	return u, ok
}

func (s *userStore) put(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(u.Username)] = u
	return s.save()
}

// Auth issues and verifies the tokens the gateway trusts. Registration also
// provisions the account's starting inventory with the default skin
// equipped, so a fresh account can join the arena immediately.
type Auth struct {
	users  *userStore
	store  ledger.Store
	jwtKey []byte
	issuer string
}

func NewAuth(dataDir string, store ledger.Store) (*Auth, error) {
	users, err := newUserStore(filepath.Join(dataDir, "users.json"))
	if err != nil {
		return nil, err
	}
	keyPath := filepath.Join(dataDir, "jwt.key")
	key, err := os.ReadFile(keyPath)
	if err != nil || len(key) < 32 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyPath, key, 0o600); err != nil {
			return nil, err
		}
	}
	return &Auth{users: users, store: store, jwtKey: key, issuer: "gobble"}, nil
}

const minPasswordLen = 8

type RegisterReq struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}
type RegisterResp struct {
	OK bool `json:"ok"`
}

func (a *Auth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < minPasswordLen || req.Password != req.PasswordConfirm {
		http.Error(w, "invalid username or password mismatch / too short", http.StatusBadRequest)
		return
	}
	if a.users.exists(req.Username) {
		http.Error(w, "username already exists", http.StatusConflict)
		return
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	u := &User{Username: req.Username, PasswordHash: string(hash), CreatedAt: time.Now()}
	if err := a.users.put(u); err != nil {
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	if err := a.seedInventory(u.Username); err != nil {
		log.Printf("AUTH: seed inventory for %s: %v", u.Username, err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(RegisterResp{OK: true})
}

func (a *Auth) seedInventory(username string) error {
	starter := ""
	if fs, ok := a.store.(*ledger.FileStore); ok {
		if sk, err := fs.FindSkinByName(ledger.DefaultSkinName); err == nil {
			starter = sk.ID
		}
	}
	return a.store.CreateInventory(username, starter)
}

type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type LoginResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	u, ok := a.users.get(req.Username)
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	claims := jwt.MapClaims{
		"sub": u.Username,
		"iss": a.issuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := t.SignedString(a.jwtKey)
	_ = json.NewEncoder(w).Encode(LoginResp{Token: signed, Username: u.Username})
}

// ParseToken verifies a token and returns the account identity it names.
func (a *Auth) ParseToken(tok string) (string, error) {
	if tok == "" {
		return "", errors.New("missing token")
	}
	t, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return a.jwtKey, nil
	})
	if err != nil || !t.Valid {
		return "", errors.New("invalid token")
	}
	if claims, ok := t.Claims.(jwt.MapClaims); ok {
		if sub, ok := claims["sub"].(string); ok {
			return sub, nil
		}
	}
	return "", errors.New("bad claims")
}

// TokenFromRequest pulls a bearer token from the Authorization header or
// the token query parameter (the websocket handshake uses the latter).
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireAuth protects REST endpoints.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.ParseToken(TokenFromRequest(r))
		if err != nil || user == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
