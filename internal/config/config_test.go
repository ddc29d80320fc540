package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	w, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer w.Close()

	cfg := w.Current()
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("ListenAddr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.MemorySize != 1<<20 {
		t.Fatalf("MemorySize = %d, want %d", cfg.MemorySize, 1<<20)
	}
	if len(cfg.MonitorAllowList) != 0 {
		t.Fatalf("MonitorAllowList = %v, want empty", cfg.MonitorAllowList)
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdbstub-server.yaml")
	body := "listen_addr: 127.0.0.1:1234\nmemory_size: 4096\nmonitor_allow_list:\n  - regs\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	w, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer w.Close()

	cfg := w.Current()
	if cfg.ListenAddr != "127.0.0.1:1234" {
		t.Fatalf("ListenAddr = %q, want 127.0.0.1:1234", cfg.ListenAddr)
	}
	if cfg.MemorySize != 4096 {
		t.Fatalf("MemorySize = %d, want 4096", cfg.MemorySize)
	}
	if len(cfg.MonitorAllowList) != 1 || cfg.MonitorAllowList[0] != "regs" {
		t.Fatalf("MonitorAllowList = %v, want [regs]", cfg.MonitorAllowList)
	}
}

func TestLoadHotReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdbstub-server.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: :9000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	w, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("listen_addr: :9100\n"), 0o644); err != nil {
		t.Fatalf("rewrite WriteFile failed: %v", err)
	}

	select {
	case cfg := <-w.Updates:
		if cfg.ListenAddr != ":9100" {
			t.Fatalf("reloaded ListenAddr = %q, want :9100", cfg.ListenAddr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a config reload notification")
	}

	if got := w.Current().ListenAddr; got != ":9100" {
		t.Fatalf("Current().ListenAddr = %q, want :9100", got)
	}
}

func TestDirOf(t *testing.T) {
	if got := dirOf("/a/b/c.yaml"); got != "/a/b" {
		t.Fatalf("dirOf(/a/b/c.yaml) = %q, want /a/b", got)
	}
	if got := dirOf("c.yaml"); got != "." {
		t.Fatalf("dirOf(c.yaml) = %q, want .", got)
	}
}
