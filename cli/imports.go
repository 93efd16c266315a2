// ABOUTME: Import, export, and watch CLI commands
// ABOUTME: Moves offers in and out as CSV or XLSX, deduplicating files via the import log
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/offertrack/db"
	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/tracker"
	"github.com/sirupsen/logrus"
)

// Importer loads offer files into a tracker. Ledger is optional; when set,
// files whose contents were imported before are skipped.
type Importer struct {
	Tracker *tracker.Tracker
	Ledger  *sql.DB
	Log     logrus.FieldLogger
}

// ImportSummary reports the outcome of one file.
type ImportSummary struct {
	Path      string
	Added     int
	Skipped   int
	Duplicate bool
}

// ImportFile reads path and adds its offers. Rows that fail to parse or
// validate are logged and counted as skipped.
func (im *Importer) ImportFile(path string, force bool) (ImportSummary, error) {
	summary := ImportSummary{Path: path}
	log := im.logger().WithField("file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read %s: %w", path, err)
	}
	checksum := db.Checksum(data)

	if im.Ledger != nil && !force {
		prev, err := db.GetImport(im.Ledger, checksum)
		if err != nil {
			return summary, err
		}
		if prev != nil {
			log.WithField("imported_at", prev.ImportedAt).Info("file already imported, skipping")
			summary.Duplicate = true
			return summary, nil
		}
	}

	result, err := importer.ReadFile(path, im.Tracker.Now().Location())
	if err != nil {
		return summary, err
	}
	for _, rowErr := range result.Errors {
		log.WithError(rowErr.Err).WithField("row", rowErr.Row).Warn("skipping row")
	}

	offers := result.Offers
	var dupes []int
	if !force {
		offers, dupes = importer.NewOfferMatcher(im.Tracker.Offers()).Dedupe(result.Offers)
		for _, i := range dupes {
			log.WithField("case", result.Offers[i].CaseNumber).Info("skipping offer already recorded")
		}
	}

	added, rejected, err := im.Tracker.ImportOffers(offers)
	if err != nil {
		return summary, fmt.Errorf("failed to save imported offers: %w", err)
	}
	for i, rowErr := range rejected {
		log.WithError(rowErr).WithField("offer", i).Warn("offer rejected")
	}

	summary.Added = added
	summary.Skipped = len(result.Errors) + len(rejected) + len(dupes)

	if im.Ledger != nil {
		if err := db.RecordImport(im.Ledger, db.ImportRecord{
			Checksum: checksum,
			Path:     path,
			Imported: summary.Added,
			Skipped:  summary.Skipped,
		}); err != nil {
			return summary, err
		}
	}

	log.WithFields(logrus.Fields{"added": summary.Added, "skipped": summary.Skipped}).Info("import finished")
	return summary, nil
}

// ImportCommand imports one or more CSV or XLSX files
func ImportCommand(im *Importer, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	force := fs.Bool("force", false, "Import even if the file was imported before")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: offertrack import [--force] <file.csv|file.xlsx>...")
	}

	for _, path := range fs.Args() {
		s, err := im.ImportFile(path, *force)
		if err != nil {
			return err
		}
		if s.Duplicate {
			fmt.Fprintf(out, "- %s already imported (use --force to re-import)\n", filepath.Base(path))
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d added, %d skipped\n", filepath.Base(path), s.Added, s.Skipped)
	}
	return nil
}

// ImportHistoryCommand lists recent imports from the log
func ImportHistoryCommand(database *sql.DB, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("import history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Maximum entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if database == nil {
		return fmt.Errorf("import history requires the sqlite backend")
	}

	records, err := db.ListImports(database, *limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No imports recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tFILE\tADDED\tSKIPPED")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.ImportedAt.Format("2006-01-02 15:04"), r.Path, r.Imported, r.Skipped)
	}
	return w.Flush()
}

// ExportCommand writes all offers as CSV or XLSX
func ExportCommand(tr *tracker.Tracker, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "", "csv or xlsx (default: from --output extension, else csv)")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := strings.ToLower(*format)
	if f == "" {
		f = "csv"
		if strings.EqualFold(filepath.Ext(*output), ".xlsx") {
			f = "xlsx"
		}
	}

	w := out
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *output, err)
		}
		defer file.Close()
		w = file
	}

	offers := tr.Offers()
	switch f {
	case "csv":
		if err := importer.WriteCSV(w, offers); err != nil {
			return err
		}
	case "xlsx":
		if *output == "" {
			return fmt.Errorf("xlsx export needs --output")
		}
		if err := importer.WriteXLSX(w, offers); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (use csv or xlsx)", f)
	}

	if *output != "" {
		fmt.Fprintf(out, "✓ Exported %d offers to %s\n", len(offers), *output)
	}
	return nil
}

// WatchCommand imports files dropped into a directory until ctx ends
func WatchCommand(ctx context.Context, im *Importer, defaultDir string, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	dir := fs.String("dir", defaultDir, "Directory to watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("no import directory: pass --dir or set import_dir in the config")
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", *dir, err)
	}

	return importer.WatchDir(ctx, *dir, im.Log, func(path string) {
		if _, err := im.ImportFile(path, false); err != nil {
			im.logger().WithError(err).WithField("file", path).Error("import failed")
		}
	})
}

func (im *Importer) logger() logrus.FieldLogger {
	if im.Log == nil {
		return logrus.StandardLogger()
	}
	return im.Log
}
