package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// FileStore keeps one JSON file per inventory and per session under the
// data dir, plus a single skin catalog file. Per-account mutexes make each
// inventory operation atomic while accounts stay independent of each other.
type FileStore struct {
	invDir  string
	sessDir string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	sessMu sync.Mutex

	skinsMu sync.RWMutex
	skins   map[string]Skin
}

func NewFileStore(dataDir string) (*FileStore, error) {
	s := &FileStore{
		invDir:  filepath.Join(dataDir, "inventories"),
		sessDir: filepath.Join(dataDir, "sessions"),
		locks:   make(map[string]*sync.Mutex),
		skins:   make(map[string]Skin),
	}
	for _, dir := range []string{s.invDir, s.sessDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create %s: %w", dir, err)
		}
	}
	if err := s.loadSkins(dataDir); err != nil {
		return nil, err
	}
	return s, nil
}

var safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func safeFileName(name string) string {
	s := safeNameRe.ReplaceAllString(name, "_")
	if s == "" {
		s = "account"
	}
	return s
}

func (s *FileStore) accountLock(accountID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

func (s *FileStore) invPath(accountID string) string {
	return filepath.Join(s.invDir, safeFileName(accountID)+".json")
}

func (s *FileStore) sessPath(sessionID string) string {
	return filepath.Join(s.sessDir, safeFileName(sessionID)+".json")
}

// writeFileAtomic writes through a tmp file and renames into place.
func writeFileAtomic(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func newRecordID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ledger: record id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ---- inventories ----

func (s *FileStore) readInventory(accountID string) (*Inventory, error) {
	b, err := os.ReadFile(s.invPath(accountID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoInventory
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read inventory %s: %w", accountID, err)
	}
	var inv Inventory
	if err := json.Unmarshal(b, &inv); err != nil {
		return nil, fmt.Errorf("ledger: decode inventory %s: %w", accountID, err)
	}
	return &inv, nil
}

func (s *FileStore) CreateInventory(accountID, starterSkinID string) error {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.readInventory(accountID); err == nil {
		return nil // already provisioned
	}
	inv := &Inventory{
		AccountID: accountID,
		Level:     1,
	}
	if starterSkinID != "" {
		inv.Skins = []OwnedSkin{{SkinID: starterSkinID, Acquired: time.Now(), Equipped: true}}
	}
	return writeFileAtomic(s.invPath(accountID), inv)
}

func (s *FileStore) FindInventory(accountID string) (*Inventory, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()
	return s.readInventory(accountID)
}

func (s *FileStore) IncrementInventory(accountID string, delta InventoryDelta) error {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	inv, err := s.readInventory(accountID)
	if err != nil {
		return err
	}
	inv.Experience += delta.Experience
	inv.Coins += delta.Coins
	inv.Level += delta.Level
	return writeFileAtomic(s.invPath(accountID), inv)
}

func (s *FileStore) AppendOwnedSkin(accountID, skinID string) error {
	skin, err := s.FindSkin(skinID)
	if err != nil {
		return err
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	inv, err := s.readInventory(accountID)
	if err != nil {
		return err
	}
	if inv.Coins < skin.Price {
		return ErrInsufficientCoins
	}
	inv.Coins -= skin.Price
	inv.Skins = append(inv.Skins, OwnedSkin{SkinID: skinID, Acquired: time.Now()})
	return writeFileAtomic(s.invPath(accountID), inv)
}

func (s *FileStore) SetEquippedSkin(accountID, skinID string) error {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	inv, err := s.readInventory(accountID)
	if err != nil {
		return err
	}
	owned := false
	for i := range inv.Skins {
		if inv.Skins[i].SkinID == skinID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrSkinNotOwned
	}
	for i := range inv.Skins {
		inv.Skins[i].Equipped = inv.Skins[i].SkinID == skinID
	}
	return writeFileAtomic(s.invPath(accountID), inv)
}

// ---- sessions ----

func (s *FileStore) CreateSession(accountID string) (string, error) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	id, err := newRecordID()
	if err != nil {
		return "", err
	}
	sess := &Session{
		ID:        id,
		AccountID: accountID,
		StartTime: time.Now(),
	}
	if err := writeFileAtomic(s.sessPath(sess.ID), sess); err != nil {
		return "", fmt.Errorf("ledger: create session: %w", err)
	}
	return sess.ID, nil
}

func (s *FileStore) CloseSession(sessionID string, c SessionClose) error {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	b, err := os.ReadFile(s.sessPath(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("ledger: read session %s: %w", sessionID, err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return fmt.Errorf("ledger: decode session %s: %w", sessionID, err)
	}
	sess.EndTime = c.EndTime
	sess.Score = c.Score
	sess.MaxSize = c.MaxSize
	sess.TimeAlive = c.TimeAlive
	return writeFileAtomic(s.sessPath(sessionID), &sess)
}

// FindSession reads a session record back; used by tests and tooling.
func (s *FileStore) FindSession(sessionID string) (*Session, error) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	b, err := os.ReadFile(s.sessPath(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ---- skin catalog ----

// DefaultSkinName is the catalog entry every new account starts with.
const DefaultSkinName = "default"

func defaultCatalog() []Skin {
	return []Skin{
		{ID: "skin-default", Name: DefaultSkinName, ImageURL: "/skins/default.png", Price: 1000, Rarity: "common", Effects: []string{"default effect"}},
		{ID: "skin-1", Name: "skin-1", ImageURL: "/skins/skin-1.png", Price: 1500, Rarity: "rare", Effects: []string{"special effect"}},
		{ID: "skin-2", Name: "skin-2", ImageURL: "/skins/skin-2.png", Price: 2000, Rarity: "rare", Effects: []string{"special effect"}},
	}
}

func (s *FileStore) loadSkins(dataDir string) error {
	path := filepath.Join(dataDir, "skins.json")
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		catalog := defaultCatalog()
		if err := writeFileAtomic(path, catalog); err != nil {
			return fmt.Errorf("ledger: seed skins: %w", err)
		}
		for _, sk := range catalog {
			s.skins[sk.ID] = sk
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("ledger: read skins: %w", err)
	}
	var catalog []Skin
	if err := json.Unmarshal(b, &catalog); err != nil {
		return fmt.Errorf("ledger: decode skins: %w", err)
	}
	for _, sk := range catalog {
		s.skins[sk.ID] = sk
	}
	return nil
}

func (s *FileStore) FindSkin(skinID string) (*Skin, error) {
	s.skinsMu.RLock()
	defer s.skinsMu.RUnlock()
	sk, ok := s.skins[skinID]
	if !ok {
		return nil, ErrNoSkin
	}
	return &sk, nil
}

// FindSkinByName resolves a catalog entry by display name (the signup path
// looks up the starter skin this way).
func (s *FileStore) FindSkinByName(name string) (*Skin, error) {
	s.skinsMu.RLock()
	defer s.skinsMu.RUnlock()
	for _, sk := range s.skins {
		if sk.Name == name {
			return &sk, nil
		}
	}
	return nil, ErrNoSkin
}
