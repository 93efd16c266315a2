// ABOUTME: Charm KV client wrapper with automatic sync support
// ABOUTME: Satisfies store.KV so offers and settings can live in Charm cloud

package charm

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/offertrack/store"
)

// backend is the subset of charm's kv.KV the client needs. LocalKV also
// satisfies it.
type backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

type Client struct {
	mu      sync.RWMutex
	kv      backend
	config  *Config
	connect func() (string, error)
	closer  func() error
}

// Open connects to the Charm KV named AppName, pulling remote changes first
// when cfg.SyncOnOpen is set.
func Open(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
		connect: func() (string, error) {
			cc, err := client.NewClientWithDefaults()
			if err != nil {
				return "", fmt.Errorf("failed to create charm client: %w", err)
			}
			return cc.ID()
		},
	}

	if cfg.SyncOnOpen {
		_ = db.Sync()
	}
	return c, nil
}

// NewWithBackend builds a client over any backend, typically a LocalKV.
func NewWithBackend(b backend, cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Client{
		kv:      b,
		config:  cfg,
		connect: func() (string, error) { return "local", nil },
	}
	if l, ok := b.(*LocalKV); ok {
		c.closer = l.Close
	}
	return c
}

// Close releases a local backend. charm/kv has no Close; its badger
// handle is cleaned up on process exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	return c.connect()
}

func (c *Client) IsConnected() bool {
	_, err := c.ID()
	return err == nil
}

func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Get returns store.ErrNotFound for missing keys.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, err := c.kv.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	return v, err
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Keys()
}

// Reset wipes every key from the store.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}
