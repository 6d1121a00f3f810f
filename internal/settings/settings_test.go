package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestUpsertFirstInstall(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	checked := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	err := Upsert(path, Update{
		Channel:        "stable",
		CurrentVersion: "v0.0.17",
		CheckedAt:      checked,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Channel != "stable" {
		t.Errorf("channel = %q", rec.Channel)
	}
	if rec.CurrentVersion != "v0.0.17" {
		t.Errorf("current_version = %q", rec.CurrentVersion)
	}
	if !rec.AutoUpdate || !rec.Notifications {
		t.Errorf("first install should seed defaults: %+v", rec)
	}
	if rec.LastUpdateCheck != "2026-03-14T09:26:53Z" {
		t.Errorf("last_update_check = %q", rec.LastUpdateCheck)
	}
}

func TestUpsertPreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	existing := `{
		"channel": "stable",
		"current_version": "v0.0.16",
		"auto_update": false,
		"notifications": true,
		"telemetry_opt_out": true,
		"theme": {"accent": "amber"}
	}`
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	err := Upsert(path, Update{
		Channel:        "beta",
		CurrentVersion: "v0.0.17",
		CheckedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	doc := gjson.ParseBytes(data)

	if got := doc.Get("telemetry_opt_out").Bool(); !got {
		t.Error("unknown top-level key must survive an update")
	}
	if got := doc.Get("theme.accent").String(); got != "amber" {
		t.Errorf("unknown nested key must survive, got %q", got)
	}
	if got := doc.Get("auto_update").Bool(); got {
		t.Error("user's auto_update choice must not be reset")
	}
	if got := doc.Get("current_version").String(); got != "v0.0.17" {
		t.Errorf("current_version = %q", got)
	}
	if got := doc.Get("channel").String(); got != "beta" {
		t.Errorf("channel = %q", got)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	up := Update{
		Channel:        "stable",
		CurrentVersion: "v1.2.0",
		CheckedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := Upsert(path, up); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := Upsert(path, up); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("re-upsert changed the document:\n%s\nvs\n%s", first, second)
	}
}

func TestUpsertReplacesCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	err := Upsert(path, Update{Channel: "stable", CurrentVersion: "v1.0.0", CheckedAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.CurrentVersion != "v1.0.0" {
		t.Errorf("current_version = %q", rec.CurrentVersion)
	}
}
