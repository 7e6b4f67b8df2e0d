// Package drafts keeps in-progress form state so an interrupted session can
// pick up where it left off.
package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// ErrCorrupt is returned when a stored snapshot is not valid JSON.
var ErrCorrupt = errors.New("draft snapshot is not valid JSON")

// Store persists draft snapshots. *database.DB implements it.
type Store interface {
	LoadDraft(key string) (*database.Draft, error)
	SaveDraft(key string, state []byte, savedAt time.Time) error
	DeleteDraft(key string) error
}

// Key returns the storage key of a draft, "feature_contentType_client".
// Parts may contain underscores themselves, so a key identifies a draft
// only for the fixed feature and content type names used by callers.
func Key(feature, contentType, clientID string) string {
	return strings.Join([]string{feature, contentType, database.ClientOrDefault(clientID)}, "_")
}

// Snapshot is a stored draft as handed to API clients.
type Snapshot struct {
	Key     string          `json:"key"`
	State   json.RawMessage `json:"state"`
	SavedAt time.Time       `json:"savedAt"`
}

// Save writes state under key immediately.
func Save(store Store, key string, state any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	return store.SaveDraft(key, data, time.Now())
}

// Load returns the snapshot under key, or nil when there is none.
func Load(store Store, key string) (*Snapshot, error) {
	d, err := store.LoadDraft(key)
	if err != nil || d == nil {
		return nil, err
	}
	return &Snapshot{Key: d.Key, State: json.RawMessage(d.State), SavedAt: d.SavedAt}, nil
}

// Restore overlays the snapshot under key onto dst, which the caller fills
// with defaults first. Fields missing from the snapshot keep their defaults
// and fields whose stored type no longer matches are skipped. It reports
// whether a snapshot was found. A corrupt snapshot leaves dst untouched.
func Restore(store Store, key string, dst any) (bool, error) {
	d, err := store.LoadDraft(key)
	if err != nil {
		return false, fmt.Errorf("loading draft %s: %w", key, err)
	}
	if d == nil {
		return false, nil
	}
	if !json.Valid(d.State) {
		return false, fmt.Errorf("draft %s: %w", key, ErrCorrupt)
	}

	if err := json.Unmarshal(d.State, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return false, fmt.Errorf("decoding draft %s: %w", key, err)
		}
		zap.S().Debugf("Draft %s: skipped field %q: %v", key, typeErr.Field, err)
	}
	return true, nil
}
