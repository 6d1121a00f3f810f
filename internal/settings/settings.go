// Package settings persists the installer's per-user settings record.
// Updates are read-modify-write over the existing document so keys this
// version does not recognize survive an update.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FileName is the settings file name under the install root.
const FileName = "settings.json"

// Record is the subset of the settings document this version understands.
// The on-disk document may hold more; unknown keys are preserved verbatim.
type Record struct {
	Channel         string
	CurrentVersion  string
	AutoUpdate      bool
	Notifications   bool
	LastUpdateCheck string
}

// Update carries the fields refreshed on every install.
type Update struct {
	Channel        string
	CurrentVersion string
	CheckedAt      time.Time
}

// Upsert creates the settings file on first install and merges the update
// into the existing document afterwards. The write is atomic (temp file +
// rename) so a crash never leaves a truncated record.
func Upsert(path string, up Update) error {
	doc := "{}"
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if gjson.ValidBytes(existing) {
			doc = string(existing)
		}
		// An unreadable document is replaced rather than propagated: the
		// record is advisory and must not block an install.
	case os.IsNotExist(err):
		// First install: seed the defaults alongside the update.
		if doc, err = sjson.Set(doc, "auto_update", true); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		if doc, err = sjson.Set(doc, "notifications", true); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	default:
		return fmt.Errorf("read settings: %w", err)
	}

	// channel is recorded for tooling visibility only; resolution never
	// reads it back (the channel is decided per-invocation).
	if doc, err = sjson.Set(doc, "channel", up.Channel); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	if doc, err = sjson.Set(doc, "current_version", up.CurrentVersion); err != nil {
		return fmt.Errorf("set current_version: %w", err)
	}
	stamp := up.CheckedAt.UTC().Format(time.RFC3339)
	if doc, err = sjson.Set(doc, "last_update_check", stamp); err != nil {
		return fmt.Errorf("set last_update_check: %w", err)
	}

	return writeAtomic(path, []byte(doc))
}

// Load reads the recognized fields from the settings file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(data)

	return &Record{
		Channel:         doc.Get("channel").String(),
		CurrentVersion:  doc.Get("current_version").String(),
		AutoUpdate:      doc.Get("auto_update").Bool(),
		Notifications:   doc.Get("notifications").Bool(),
		LastUpdateCheck: doc.Get("last_update_check").String(),
	}, nil
}

// writeAtomic writes data via a temp file and rename in the target
// directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename settings: %w", err)
	}
	return nil
}
