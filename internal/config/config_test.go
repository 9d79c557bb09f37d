package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.AuthBaseURL == "" || cfg.CourseBaseURL == "" {
		t.Error("Expected default base URLs")
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.HTTPTimeout)
	}
	if cfg.SFTPPort != 22 {
		t.Errorf("Expected default SFTP port 22, got %d", cfg.SFTPPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_BASE_URL", "http://localhost:9000/api/auth")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("LMS_STATE_PATH", "/tmp/custom.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.AuthBaseURL != "http://localhost:9000/api/auth" {
		t.Errorf("Expected override, got %q", cfg.AuthBaseURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.StatePath != "/tmp/custom.db" {
		t.Errorf("Expected custom state path, got %q", cfg.StatePath)
	}
}
