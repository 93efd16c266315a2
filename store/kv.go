// ABOUTME: Key-value storage abstraction shared by every backend
// ABOUTME: Offers and settings are JSON blobs under fixed keys
package store

import "errors"

// ErrNotFound is returned by KV.Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Fixed storage keys.
const (
	OffersKey   = "offers"
	SettingsKey = "user_settings"
)

// KV is the persistence contract. SQLite, BadgerDB, and Charm all satisfy it.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// MemoryKV is an in-process KV for tests and dry runs.
type MemoryKV struct {
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}
