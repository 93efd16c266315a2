// ABOUTME: Migration utility for moving offers and settings between storage backends
// ABOUTME: Provides dry-run and backup capabilities for safe migration

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/offertrack/backend"
	"github.com/harperreed/offertrack/config"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/store"
)

func main() {
	from := flag.String("from", "", "Source backend: sqlite, badger, or charm (required)")
	to := flag.String("to", "", "Destination backend: sqlite, badger, or charm (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up destination data before overwriting")
	force := flag.Bool("force", false, "Overwrite a destination that already has offers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error: %v", err)
	}
	log := cfg.NewLogger()

	if *from == "" || *to == "" {
		log.Fatal("Error: -from and -to flags are required")
	}
	if *from == *to {
		log.Fatal("Error: -from and -to must differ")
	}

	src, err := backend.OpenNamed(cfg, *from)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *from, err)
	}
	dst, err := backend.OpenNamed(cfg, *to)
	if err != nil {
		_ = src.Close()
		log.Fatalf("Failed to open %s: %v", *to, err)
	}

	opts := options{DryRun: *dryRun, Force: *force}
	if *backup {
		opts.BackupDir = filepath.Join(cfg.DataDir, "backups")
	}

	err = migrate(src.KV, dst.KV, opts, log)
	_ = dst.Close()
	_ = src.Close()
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Info("Migration completed successfully")
}

type options struct {
	DryRun    bool
	Force     bool
	BackupDir string
	Now       func() time.Time
}

var errDestinationNotEmpty = errors.New("destination already has offers; use -force to overwrite")

// readOnly drops writes so loading legacy records in a dry run leaves the source untouched.
type readOnly struct{ store.KV }

func (readOnly) Set(key, value []byte) error { return nil }

func migrate(src, dst store.KV, opts options, log logrus.FieldLogger) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DryRun {
		src = readOnly{src}
		dst = readOnly{dst}
	}

	offers, err := store.NewOfferStore(src, log).Load()
	if err != nil {
		return fmt.Errorf("failed to read source offers: %w", err)
	}
	settings, err := store.NewSettingsStore(src).Load()
	if err != nil {
		return fmt.Errorf("failed to read source settings: %w", err)
	}
	log.WithField("offers", len(offers)).Info("Read source data")

	dstOffers := store.NewOfferStore(dst, log)
	existing, err := dstOffers.Load()
	if err != nil {
		return fmt.Errorf("failed to read destination offers: %w", err)
	}
	if len(existing) > 0 {
		log.WithField("offers", len(existing)).Warn("Destination already has offers")
		if !opts.Force {
			return errDestinationNotEmpty
		}
	}

	if opts.DryRun {
		log.Infof("[DRY RUN] Would copy %d offers and settings", len(offers))
		if len(existing) > 0 {
			log.Infof("[DRY RUN] Would replace %d existing offers", len(existing))
		}
		return nil
	}

	if opts.BackupDir != "" && len(existing) > 0 {
		path, err := writeBackup(opts.BackupDir, existing, opts.Now())
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.WithField("path", path).Info("Backup created successfully")
	}

	if err := dstOffers.Save(offers); err != nil {
		return err
	}
	if err := store.NewSettingsStore(dst).Save(settings); err != nil {
		return err
	}
	log.WithField("offers", len(offers)).Info("Copied offers and settings")
	return nil
}

func writeBackup(dir string, offers []models.Offer, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("offers.backup.%s.json", now.Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
