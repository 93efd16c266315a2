// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: Status, manual sync, auto-sync toggle, and wipe for the offer store

package charm

import (
	"flag"
	"fmt"
	"io"

	"github.com/harperreed/offertrack/store"
)

// SyncStatusCommand prints the server, auto-sync setting, and key count.
func SyncStatusCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	fmt.Fprintln(out, "Charm Sync Status")
	fmt.Fprintln(out, "─────────────────")
	fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	id, err := c.ID()
	if err != nil {
		fmt.Fprintln(out, "\nStatus: Not connected")
		fmt.Fprintln(out, "Charm uses SSH keys for authentication; no login is required.")
		return nil
	}
	fmt.Fprintln(out, "\nStatus: Connected")
	fmt.Fprintf(out, "ID:        %s\n", id)

	if keys, err := c.Keys(); err == nil {
		fmt.Fprintf(out, "Keys:      %d\n", len(keys))
	}
	for _, k := range []string{store.OffersKey, store.SettingsKey} {
		v, err := c.Get([]byte(k))
		switch {
		case err == nil:
			fmt.Fprintf(out, "  %-14s %d bytes\n", k, len(v))
		default:
			fmt.Fprintf(out, "  %-14s (empty)\n", k)
		}
	}
	return nil
}

func SyncNowCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *verbose {
		fmt.Fprintln(out, "Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Synced")
	return nil
}

// SetAutoSyncCommand toggles auto-sync in the saved config.
func SetAutoSyncCommand(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync auto", flag.ContinueOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *enable == *disable {
		return fmt.Errorf("usage: offertrack sync auto --enable|--disable")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to save auto-sync setting: %w", err)
	}
	if *enable {
		fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}

// SyncWipeCommand deletes every key. It refuses without --confirm.
func SyncWipeCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		fmt.Fprintln(out, "WARNING: This will delete ALL offers and settings!")
		fmt.Fprintln(out, "To confirm, run:")
		fmt.Fprintln(out, "  offertrack sync wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Fprintln(out, "✓ All data wiped")
	return nil
}
