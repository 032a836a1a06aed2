package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
)

const officialGroupKey = "official_group"

// OfficialGroup is the designated pairing venue record.
type OfficialGroup struct {
	JID  types.JID `json:"-"`
	Name string    `json:"name"`
	Icon string    `json:"icon,omitempty"`

	RawJID string `json:"jid"`
}

// SettingsStore handles durable settings plus the in-memory cache of the
// official group record. The cached triple (jid, name, icon) is updated as
// a unit under the mutex so readers never observe a partial update.
type SettingsStore struct {
	store *Store

	mu       sync.RWMutex
	official *OfficialGroup
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(s *Store) *SettingsStore {
	return &SettingsStore{store: s}
}

// Get retrieves a raw setting value.
func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.store.QueryRow(`SELECT value FROM warden_settings WHERE key = ?`, key).Scan(&value)
	return value, err
}

// Set stores a raw setting value.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.store.Exec(`
		INSERT INTO warden_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	return err
}

// LoadOfficial refreshes the in-memory official group cache from the
// database. Called once at startup; absence is not an error.
func (s *SettingsStore) LoadOfficial() error {
	raw, err := s.Get(officialGroupKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load official group: %w", err)
	}

	var og OfficialGroup
	if err := json.Unmarshal([]byte(raw), &og); err != nil {
		return fmt.Errorf("decode official group: %w", err)
	}
	og.JID, _ = types.ParseJID(og.RawJID)

	s.mu.Lock()
	s.official = &og
	s.mu.Unlock()
	return nil
}

// Official returns a copy of the official group record, if one is set.
func (s *SettingsStore) Official() (OfficialGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.official == nil {
		return OfficialGroup{}, false
	}
	return *s.official, true
}

// SetOfficial persists the official group record and updates the cache.
func (s *SettingsStore) SetOfficial(jid types.JID, name, icon string) error {
	og := &OfficialGroup{JID: jid, Name: name, Icon: icon, RawJID: jid.String()}
	raw, err := json.Marshal(og)
	if err != nil {
		return fmt.Errorf("encode official group: %w", err)
	}
	if err := s.Set(officialGroupKey, string(raw)); err != nil {
		return fmt.Errorf("save official group: %w", err)
	}

	s.mu.Lock()
	s.official = og
	s.mu.Unlock()
	return nil
}
