package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gobble/server/ledger"
)

func newTestAuth(t *testing.T) (*Auth, *ledger.FileStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := ledger.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	a, err := NewAuth(dir, store)
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}
	return a, store
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func register(t *testing.T, a *Auth, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	return postJSON(t, a.HandleRegister, RegisterReq{Username: user, Password: pass, PasswordConfirm: pass})
}

func TestRegisterSeedsInventory(t *testing.T) {
	a, store := newTestAuth(t)

	if w := register(t, a, "alice", "password123"); w.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", w.Code, w.Body.String())
	}

	inv, err := store.FindInventory("alice")
	if err != nil {
		t.Fatalf("inventory after register: %v", err)
	}
	if inv.Level != 1 {
		t.Fatalf("level = %d, want 1", inv.Level)
	}
	if got := inv.EquippedSkin(); got != "skin-default" {
		t.Fatalf("starter skin = %q, want skin-default", got)
	}
}

func TestConcurrentRegistrationsAllPersist(t *testing.T) {
	dir := t.TempDir()
	store, err := ledger.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	a, err := NewAuth(dir, store)
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user%02d", i)
			if w := register(t, a, name, "password123"); w.Code != http.StatusOK {
				t.Errorf("register %s status = %d: %s", name, w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	// A fresh process over the same data dir must see every account.
	a2, err := NewAuth(dir, store)
	if err != nil {
		t.Fatalf("reopen auth: %v", err)
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("user%02d", i)
		if w := register(t, a2, name, "password123"); w.Code != http.StatusConflict {
			t.Errorf("reloaded store lost %s: register status = %d, want 409", name, w.Code)
		}
	}
}

func TestCorruptUserFileFailsStartup(t *testing.T) {
	dir := t.TempDir()
	store, err := ledger.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewAuth(dir, store); err == nil {
		t.Fatal("auth started over an undecodable user file")
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestAuth(t)

	if w := postJSON(t, a.HandleRegister, RegisterReq{Username: "alice", Password: "short", PasswordConfirm: "short"}); w.Code != http.StatusBadRequest {
		t.Fatalf("short password status = %d, want 400", w.Code)
	}
	if w := postJSON(t, a.HandleRegister, RegisterReq{Username: "alice", Password: "password123", PasswordConfirm: "different0"}); w.Code != http.StatusBadRequest {
		t.Fatalf("mismatch status = %d, want 400", w.Code)
	}
	if w := postJSON(t, a.HandleRegister, RegisterReq{Username: "  ", Password: "password123", PasswordConfirm: "password123"}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank username status = %d, want 400", w.Code)
	}

	if w := register(t, a, "alice", "password123"); w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}
	if w := register(t, a, "ALICE", "password123"); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", w.Code)
	}
}

func TestLoginAndParseToken(t *testing.T) {
	a, _ := newTestAuth(t)
	if w := register(t, a, "alice", "password123"); w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}

	w := postJSON(t, a.HandleLogin, LoginReq{Username: "alice", Password: "wrongpass1"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", w.Code)
	}
	w = postJSON(t, a.HandleLogin, LoginReq{Username: "nobody", Password: "password123"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user status = %d, want 401", w.Code)
	}

	w = postJSON(t, a.HandleLogin, LoginReq{Username: "alice", Password: "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp LoginResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login resp: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}

	sub, err := a.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("token subject = %q, want alice", sub)
	}

	if _, err := a.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}
	if _, err := a.ParseToken(""); err == nil {
		t.Fatal("empty token accepted")
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=query-token", nil)
	if got := TokenFromRequest(r); got != "query-token" {
		t.Fatalf("query token = %q", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := TokenFromRequest(r); got != "header-token" {
		t.Fatalf("header token = %q", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	if got := TokenFromRequest(r); got != "" {
		t.Fatalf("token from bare request = %q, want empty", got)
	}
}

func TestRequireAuth(t *testing.T) {
	a, _ := newTestAuth(t)
	if w := register(t, a, "alice", "password123"); w.Code != http.StatusOK {
		t.Fatalf("register status = %d", w.Code)
	}
	w := postJSON(t, a.HandleLogin, LoginReq{Username: "alice", Password: "password123"})
	var resp LoginResp
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	h := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no-token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("authorized status = %d, want 204", rec.Code)
	}
}
