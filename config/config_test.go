package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DATABASE_DSN", "DATABASE_PATH", "STORAGE_BACKEND", "MAX_UPLOAD_MB",
		"CODEC_ERROR_POLICY", "MISSING_PRIOR_POLICY", "CORS_ALLOWED_ORIGINS", "MEDIA_URL", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.DatabaseDSN != "portfolio.db" {
		t.Errorf("DatabaseDSN = %q", cfg.DatabaseDSN)
	}
	if cfg.MaxUploadBytes != 20*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 20MiB", cfg.MaxUploadBytes)
	}
	if cfg.CodecErrorPolicy != CodecErrorAbort || cfg.MissingPriorPolicy != MissingPriorSkip {
		t.Errorf("unexpected failure policies: %q / %q", cfg.CodecErrorPolicy, cfg.MissingPriorPolicy)
	}
	if cfg.MediaURL != "/media/" {
		t.Errorf("MediaURL = %q", cfg.MediaURL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DB_DRIVER", "postgres"},
		{"storage", "STORAGE_BACKEND", "ftp"},
		{"codec policy", "CODEC_ERROR_POLICY", "ignore"},
		{"prior policy", "MISSING_PRIOR_POLICY", "retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadConfigMySQLRequiresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DATABASE_DSN", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when mysql has no DSN")
	}
}

func TestLoadConfigOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.ro, https://admin.example.ro ,")
	t.Setenv("MEDIA_URL", "https://cdn.example.ro/media")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.example.ro" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MediaURL != "https://cdn.example.ro/media/" {
		t.Errorf("MediaURL = %q", cfg.MediaURL)
	}
}
