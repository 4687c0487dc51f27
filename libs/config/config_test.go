package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBool(t *testing.T) {
	cases := map[string]bool{"": true, "1": true, "TRUE": true, "on": true, "no": false, "0": false}
	for raw, want := range cases {
		t.Setenv("SALON_FLAG", raw)
		if got := Bool("SALON_FLAG", true); got != want {
			t.Fatalf("Bool(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestRequiredInt64(t *testing.T) {
	t.Setenv("ADMIN_CHAT_ID", "5170509558")
	v, err := RequiredInt64("ADMIN_CHAT_ID")
	if err != nil || v != 5170509558 {
		t.Fatalf("unexpected result %d, %v", v, err)
	}

	t.Setenv("ADMIN_CHAT_ID", "abc")
	if _, err := RequiredInt64("ADMIN_CHAT_ID"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SALON_TIMEZONE=Europe/Moscow\nSALON_DOTENV_ONLY=yes\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SALON_TIMEZONE", "UTC")
	t.Setenv("SALON_DOTENV_ONLY", "")
	os.Unsetenv("SALON_DOTENV_ONLY")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := String("SALON_TIMEZONE", ""); got != "UTC" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
	if got := String("SALON_DOTENV_ONLY", ""); got != "yes" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
