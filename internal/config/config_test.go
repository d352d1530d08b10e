package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// allEnvVars lists every env var Load reads; cleared between tests.
var allEnvVars = []string{
	"BEADSCOPE_CONFIG", "BEADSCOPE_TRACKER_BIN", "BEADSCOPE_WORKDIR",
	"BEADSCOPE_ROOTS", "BEADSCOPE_HTTP_ADDR", "BEADSCOPE_NATS_URL",
	"BEADSCOPE_POLL_INTERVAL", "BEADSCOPE_DETECT_CHANGES",
	"BEADSCOPE_TRACKER_TIMEOUT", "BEADSCOPE_EXPORT_S3_BUCKET",
	"BEADSCOPE_EXPORT_S3_ENDPOINT", "BEADSCOPE_EXPORT_S3_REGION",
	"BEADSCOPE_EXPORT_S3_PREFIX",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantBin      string
		wantHTTPAddr string
		wantInterval time.Duration
		wantRoots    []string
	}{
		{
			name:    "MissingWorkdir",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "Defaults",
			env:          map[string]string{"BEADSCOPE_WORKDIR": "/work"},
			wantBin:      "bd",
			wantHTTPAddr: ":8080",
			wantInterval: 15 * time.Second,
		},
		{
			name: "Custom",
			env: map[string]string{
				"BEADSCOPE_WORKDIR":       "/work",
				"BEADSCOPE_TRACKER_BIN":   "/usr/local/bin/bd",
				"BEADSCOPE_HTTP_ADDR":     ":3000",
				"BEADSCOPE_POLL_INTERVAL": "1m",
				"BEADSCOPE_ROOTS":         "bd-1, bd-7,bd-9",
			},
			wantBin:      "/usr/local/bin/bd",
			wantHTTPAddr: ":3000",
			wantInterval: time.Minute,
			wantRoots:    []string{"bd-1", "bd-7", "bd-9"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.TrackerBin != tc.wantBin {
				t.Errorf("TrackerBin = %q, want %q", cfg.TrackerBin, tc.wantBin)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.PollInterval != tc.wantInterval {
				t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, tc.wantInterval)
			}
			if tc.wantRoots != nil && !reflect.DeepEqual(cfg.Roots, tc.wantRoots) {
				t.Errorf("Roots = %v, want %v", cfg.Roots, tc.wantRoots)
			}
		})
	}
}

func TestLoadInvalidInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("BEADSCOPE_WORKDIR", "/work")
	t.Setenv("BEADSCOPE_POLL_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid BEADSCOPE_POLL_INTERVAL")
	}
}

func TestLoadInvalidDetectChanges(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("BEADSCOPE_WORKDIR", "/work")
	t.Setenv("BEADSCOPE_DETECT_CHANGES", "maybe")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid BEADSCOPE_DETECT_CHANGES")
	}
}

func TestLoadExportDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("BEADSCOPE_WORKDIR", "/work")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportS3Region != "us-east-1" {
		t.Errorf("ExportS3Region = %q, want %q", cfg.ExportS3Region, "us-east-1")
	}
	if cfg.ExportS3Prefix != "beadscope/snapshots" {
		t.Errorf("ExportS3Prefix = %q, want %q", cfg.ExportS3Prefix, "beadscope/snapshots")
	}
	if !cfg.DetectChanges {
		t.Error("DetectChanges should default to true")
	}
}

func TestLoadTOMLFile(t *testing.T) {
	clearAllEnv(t)

	path := filepath.Join(t.TempDir(), "beadscope.toml")
	data := `
tracker_bin = "bd-staging"
workdir = "/srv/tracker"
roots = ["bd-100", "bd-200"]
poll_interval = "45s"
detect_changes = false

[export]
s3_bucket = "snapshots"
s3_region = "eu-west-1"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("BEADSCOPE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TrackerBin != "bd-staging" {
		t.Errorf("TrackerBin = %q", cfg.TrackerBin)
	}
	if cfg.Workdir != "/srv/tracker" {
		t.Errorf("Workdir = %q", cfg.Workdir)
	}
	if !reflect.DeepEqual(cfg.Roots, []string{"bd-100", "bd-200"}) {
		t.Errorf("Roots = %v", cfg.Roots)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.DetectChanges {
		t.Error("DetectChanges should be false from file")
	}
	if cfg.ExportS3Bucket != "snapshots" || cfg.ExportS3Region != "eu-west-1" {
		t.Errorf("export = %q/%q", cfg.ExportS3Bucket, cfg.ExportS3Region)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearAllEnv(t)

	path := filepath.Join(t.TempDir(), "beadscope.toml")
	data := `
workdir = "/srv/tracker"
poll_interval = "45s"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("BEADSCOPE_CONFIG", path)
	t.Setenv("BEADSCOPE_POLL_INTERVAL", "5s")
	t.Setenv("BEADSCOPE_WORKDIR", "/overridden")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want env value 5s", cfg.PollInterval)
	}
	if cfg.Workdir != "/overridden" {
		t.Errorf("Workdir = %q, want env value", cfg.Workdir)
	}
}
