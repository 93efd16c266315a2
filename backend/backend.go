// ABOUTME: Opens the configured storage backend and builds a tracker on it
// ABOUTME: SQLite also hosts the import ledger; badger and charm keep offers in KV only
package backend

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/offertrack/charm"
	"github.com/harperreed/offertrack/config"
	"github.com/harperreed/offertrack/db"
	"github.com/harperreed/offertrack/store"
	"github.com/harperreed/offertrack/tracker"
)

// Backend holds an open KV plus the import ledger database.
type Backend struct {
	Name  string
	KV    store.KV
	DB    *sql.DB
	Charm *charm.Client

	closers []func() error
}

// Open opens the backend named by cfg.Backend. The sqlite database at
// cfg.SQLitePath is always opened because it records imports.
func Open(cfg *config.Config) (*Backend, error) {
	return OpenNamed(cfg, cfg.Backend)
}

// OpenNamed opens a specific backend regardless of cfg.Backend.
func OpenNamed(cfg *config.Config, name string) (*Backend, error) {
	database, err := db.OpenDatabase(cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := &Backend{Name: name, DB: database}
	b.closers = append(b.closers, database.Close)

	switch name {
	case config.BackendSQLite:
		b.KV = db.NewKVStore(database)

	case config.BackendBadger:
		local, err := charm.OpenLocal(cfg.BadgerDir())
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.KV = local
		b.closers = append(b.closers, local.Close)

	case config.BackendCharm:
		charmCfg, err := charm.LoadConfig()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		client, err := charm.Open(charmCfg)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.KV = client
		b.Charm = client
		b.closers = append(b.closers, client.Close)

	default:
		_ = b.Close()
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, name)
	}
	return b, nil
}

// Tracker loads offers and settings from the backend. The clock reports
// wall time in loc.
func (b *Backend) Tracker(loc *time.Location, log logrus.FieldLogger) (*tracker.Tracker, error) {
	if loc == nil {
		loc = time.Local
	}
	return tracker.New(
		store.NewOfferStore(b.KV, log),
		store.NewSettingsStore(b.KV),
		tracker.WithClock(func() time.Time { return time.Now().In(loc) }),
		tracker.WithLogger(log),
	)
}

// Close releases everything in reverse open order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
