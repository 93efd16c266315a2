// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Backs the client with a BadgerDB in a per-test temp directory

package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient returns a client over a local badger store that is closed
// when the test ends. No server is contacted.
func NewTestClient(t testing.TB) *Client {
	t.Helper()

	local, err := OpenLocal(filepath.Join(t.TempDir(), AppName))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}

	c := NewWithBackend(local, &Config{Host: "localhost"})
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return c
}
