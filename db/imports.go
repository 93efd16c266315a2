// ABOUTME: Database operations for the import_log table
// ABOUTME: Lets the import watcher skip files it has already ingested
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

type ImportRecord struct {
	Checksum   string
	Path       string
	Imported   int
	Skipped    int
	ImportedAt time.Time
}

// Checksum fingerprints file contents for the import log.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetImport returns nil when the checksum has never been imported.
func GetImport(db *sql.DB, checksum string) (*ImportRecord, error) {
	var r ImportRecord
	err := db.QueryRow(`
		SELECT checksum, path, imported, skipped, imported_at
		FROM import_log
		WHERE checksum = ?
	`, checksum).Scan(&r.Checksum, &r.Path, &r.Imported, &r.Skipped, &r.ImportedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import record: %w", err)
	}
	return &r, nil
}

func RecordImport(db *sql.DB, r ImportRecord) error {
	if r.ImportedAt.IsZero() {
		r.ImportedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO import_log (checksum, path, imported, skipped, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(checksum) DO UPDATE SET
			path = excluded.path,
			imported = excluded.imported,
			skipped = excluded.skipped,
			imported_at = excluded.imported_at
	`, r.Checksum, r.Path, r.Imported, r.Skipped, r.ImportedAt)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// ListImports returns the most recent imports first.
func ListImports(db *sql.DB, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT checksum, path, imported, skipped, imported_at
		FROM import_log
		ORDER BY imported_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.Checksum, &r.Path, &r.Imported, &r.Skipped, &r.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
