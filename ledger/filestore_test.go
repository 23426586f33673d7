package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestCreateInventoryIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateInventory("alice", "skin-default"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.IncrementInventory("alice", InventoryDelta{Coins: 500}); err != nil {
		t.Fatalf("increment: %v", err)
	}
	// A retried create must not wipe the balance.
	if err := s.CreateInventory("alice", "skin-default"); err != nil {
		t.Fatalf("second create: %v", err)
	}

	inv, err := s.FindInventory("alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if inv.Coins != 500 {
		t.Fatalf("coins = %d, want 500", inv.Coins)
	}
	if inv.Level != 1 {
		t.Fatalf("level = %d, want 1", inv.Level)
	}
	if got := inv.EquippedSkin(); got != "skin-default" {
		t.Fatalf("equipped = %q, want skin-default", got)
	}
}

func TestFindInventoryMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FindInventory("nobody"); !errors.Is(err, ErrNoInventory) {
		t.Fatalf("err = %v, want ErrNoInventory", err)
	}
	if err := s.IncrementInventory("nobody", InventoryDelta{Coins: 1}); !errors.Is(err, ErrNoInventory) {
		t.Fatalf("increment err = %v, want ErrNoInventory", err)
	}
}

func TestConcurrentIncrementsAllLand(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateInventory("alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.IncrementInventory("alice", InventoryDelta{Coins: 1, Experience: 2}); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	inv, err := s.FindInventory("alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if inv.Coins != 20 || inv.Experience != 40 {
		t.Fatalf("coins=%d experience=%d, want 20/40", inv.Coins, inv.Experience)
	}
}

func TestAppendOwnedSkinDeductsPrice(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateInventory("alice", "skin-default"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.AppendOwnedSkin("alice", "skin-1"); !errors.Is(err, ErrInsufficientCoins) {
		t.Fatalf("broke purchase err = %v, want ErrInsufficientCoins", err)
	}
	if err := s.AppendOwnedSkin("alice", "no-such"); !errors.Is(err, ErrNoSkin) {
		t.Fatalf("unknown skin err = %v, want ErrNoSkin", err)
	}

	if err := s.IncrementInventory("alice", InventoryDelta{Coins: 2000}); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := s.AppendOwnedSkin("alice", "skin-1"); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	inv, _ := s.FindInventory("alice")
	if inv.Coins != 500 {
		t.Fatalf("coins after purchase = %d, want 500", inv.Coins)
	}
	if len(inv.Skins) != 2 {
		t.Fatalf("owned skins = %d, want 2", len(inv.Skins))
	}
	// Purchase grants ownership; it does not change what is equipped.
	if got := inv.EquippedSkin(); got != "skin-default" {
		t.Fatalf("equipped after purchase = %q, want skin-default", got)
	}
}

func TestSetEquippedSkinIsExclusive(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateInventory("alice", "skin-default"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetEquippedSkin("alice", "skin-1"); !errors.Is(err, ErrSkinNotOwned) {
		t.Fatalf("unowned equip err = %v, want ErrSkinNotOwned", err)
	}

	if err := s.IncrementInventory("alice", InventoryDelta{Coins: 2000}); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := s.AppendOwnedSkin("alice", "skin-1"); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if err := s.SetEquippedSkin("alice", "skin-1"); err != nil {
		t.Fatalf("equip: %v", err)
	}

	inv, _ := s.FindInventory("alice")
	for _, sk := range inv.Skins {
		want := sk.SkinID == "skin-1"
		if sk.Equipped != want {
			t.Fatalf("skin %s equipped = %v, want %v", sk.SkinID, sk.Equipped, want)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateSession("alice")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}
	if other, err := s.CreateSession("alice"); err != nil || other == id {
		t.Fatalf("second session = %q, %v; want a distinct id", other, err)
	}

	sess, err := s.FindSession(id)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if sess.AccountID != "alice" || sess.StartTime.IsZero() || !sess.EndTime.IsZero() {
		t.Fatalf("open session = %+v", sess)
	}

	end := time.Now()
	if err := s.CloseSession(id, SessionClose{EndTime: end, Score: 14, MaxSize: 14, TimeAlive: 42.5}); err != nil {
		t.Fatalf("close: %v", err)
	}
	sess, err = s.FindSession(id)
	if err != nil {
		t.Fatalf("re-find: %v", err)
	}
	if sess.EndTime.IsZero() || sess.Score != 14 || sess.MaxSize != 14 || sess.TimeAlive != 42.5 {
		t.Fatalf("closed session = %+v", sess)
	}

	if err := s.CloseSession("no-such-session", SessionClose{EndTime: end}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("close missing err = %v, want ErrNoSession", err)
	}
}

func TestCatalogSeedAndReload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "skins.json")); err != nil {
		t.Fatalf("catalog file not seeded: %v", err)
	}
	sk, err := s.FindSkinByName(DefaultSkinName)
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if sk.ID != "skin-default" || sk.Price != 1000 {
		t.Fatalf("default skin = %+v", sk)
	}

	// A second store on the same dir reads the persisted file back.
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := s2.FindSkin("skin-2"); err != nil {
		t.Fatalf("find after reload: %v", err)
	}
	if _, err := s2.FindSkin("no-such"); !errors.Is(err, ErrNoSkin) {
		t.Fatalf("unknown skin err = %v, want ErrNoSkin", err)
	}
}

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"alice":       "alice",
		"a/b..c":      "a_b_c",
		"..":          "_",
		"":            "account",
		"mixed 123OK": "mixed_123OK",
	}
	for in, want := range cases {
		if got := safeFileName(in); got != want {
			t.Errorf("safeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
