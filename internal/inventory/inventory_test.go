package inventory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/snmp"
)

func writeInventory(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.hcl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileDecodesCommunityTarget(t *testing.T) {
	path := writeInventory(t, `
target "core-sw-1" {
  address          = "10.0.0.1"
  version          = "2c"
  community        = "public"
  oids             = ["1.3.6.1.2.1.1.3.0"]
  interval_seconds = 30
}
`)

	tasks, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.ID != "core-sw-1" || task.Target.Target != "10.0.0.1" {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.Interval != 30*time.Second {
		t.Errorf("expected 30s interval, got %v", task.Interval)
	}
	if !task.Enabled {
		t.Error("expected task to default to enabled")
	}
	if task.Target.Credentials.Kind != snmp.CredentialCommunity || task.Target.Credentials.Community != "public" {
		t.Errorf("unexpected credentials: %+v", task.Target.Credentials)
	}
}

func TestLoadFileDecodesV3Target(t *testing.T) {
	path := writeInventory(t, `
target "edge-router" {
  address        = "10.0.0.2"
  version        = "3"
  oids           = ["1.3.6.1.2.1.2.2.1.8"]
  username       = "netfleet"
  auth_protocol  = "sha256"
  auth_passphrase = "hunter2hunter2"
  priv_protocol  = "aes256"
  priv_passphrase = "hunter2hunter2"
  enabled        = false
}
`)

	tasks, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	task := tasks[0]
	if task.Enabled {
		t.Error("expected enabled = false to be respected")
	}
	if task.Target.Credentials.Kind != snmp.CredentialUserBased || task.Target.Credentials.UserBased.Username != "netfleet" {
		t.Errorf("unexpected v3 credentials: %+v", task.Target.Credentials)
	}
	if task.Interval != 60*time.Second {
		t.Errorf("expected default 60s interval, got %v", task.Interval)
	}
}

func TestLoadFileMultipleTargets(t *testing.T) {
	path := writeInventory(t, `
target "a" {
  address = "10.0.0.1"
  oids    = ["1.3.6.1.2.1.1.1.0"]
}
target "b" {
  address = "10.0.0.2"
  oids    = ["1.3.6.1.2.1.1.1.0"]
}
`)

	tasks, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
}

func TestLoadFileMissingAddressFails(t *testing.T) {
	path := writeInventory(t, `
target "broken" {
  oids = ["1.3.6.1.2.1.1.1.0"]
}
`)
	_, err := LoadFile(path)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Fatalf("expected KindMalformedConfig, got %v", err)
	}
}

func TestLoadFileMissingOIDsFails(t *testing.T) {
	path := writeInventory(t, `
target "broken" {
  address = "10.0.0.1"
  oids    = []
}
`)
	_, err := LoadFile(path)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Fatalf("expected KindMalformedConfig, got %v", err)
	}
}

func TestLoadFileInvalidOIDFails(t *testing.T) {
	path := writeInventory(t, `
target "broken" {
  address = "10.0.0.1"
  oids    = ["not-an-oid"]
}
`)
	_, err := LoadFile(path)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Fatalf("expected KindMalformedConfig, got %v", err)
	}
}

func TestLoadFileInvalidAddressFails(t *testing.T) {
	path := writeInventory(t, `
target "broken" {
  address = "10.0.0.1 ; rm -rf /"
  oids    = ["1.3.6.1.2.1.1.1.0"]
}
`)
	_, err := LoadFile(path)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Fatalf("expected KindMalformedConfig, got %v", err)
	}
}

func TestLoadFileMalformedHCLFails(t *testing.T) {
	path := writeInventory(t, `target "broken" { address = `)
	_, err := LoadFile(path)
	if fleeterrors.GetKind(err) != fleeterrors.KindMalformedConfig {
		t.Fatalf("expected KindMalformedConfig, got %v", err)
	}
}
