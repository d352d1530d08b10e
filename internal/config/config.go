package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	TrackerBin string   // BEADSCOPE_TRACKER_BIN (default "bd")
	Workdir    string   // BEADSCOPE_WORKDIR (required)
	Roots      []string // BEADSCOPE_ROOTS (comma-separated, optional)
	HTTPAddr   string   // BEADSCOPE_HTTP_ADDR (default ":8080")
	NATSURL    string   // BEADSCOPE_NATS_URL (optional, empty = no event mirror)

	PollInterval   time.Duration // BEADSCOPE_POLL_INTERVAL (default 15s)
	DetectChanges  bool          // BEADSCOPE_DETECT_CHANGES (default true)
	TrackerTimeout time.Duration // BEADSCOPE_TRACKER_TIMEOUT (default 30s)

	// Snapshot export settings
	ExportS3Bucket   string // BEADSCOPE_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string // BEADSCOPE_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string // BEADSCOPE_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Prefix   string // BEADSCOPE_EXPORT_S3_PREFIX (default "beadscope/snapshots")
}

// fileConfig mirrors Config for the optional TOML file. Durations are strings
// so the file can say "30s" the same way the env does.
type fileConfig struct {
	TrackerBin     string   `toml:"tracker_bin"`
	Workdir        string   `toml:"workdir"`
	Roots          []string `toml:"roots"`
	HTTPAddr       string   `toml:"http_addr"`
	NATSURL        string   `toml:"nats_url"`
	PollInterval   string   `toml:"poll_interval"`
	DetectChanges  *bool    `toml:"detect_changes"`
	TrackerTimeout string   `toml:"tracker_timeout"`

	Export struct {
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Prefix   string `toml:"s3_prefix"`
	} `toml:"export"`
}

// Load builds the config from the environment, layered over the optional TOML
// file named by BEADSCOPE_CONFIG. Env vars win over file values.
func Load() (*Config, error) {
	c := &Config{
		TrackerBin:     "bd",
		HTTPAddr:       ":8080",
		PollInterval:   15 * time.Second,
		DetectChanges:  true,
		TrackerTimeout: 30 * time.Second,
		ExportS3Region: "us-east-1",
		ExportS3Prefix: "beadscope/snapshots",
	}

	if path := os.Getenv("BEADSCOPE_CONFIG"); path != "" {
		if err := c.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if c.Workdir == "" {
		return nil, fmt.Errorf("BEADSCOPE_WORKDIR is required")
	}
	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	return c, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("BEADSCOPE_CONFIG: %w", err)
	}

	setString(&c.TrackerBin, fc.TrackerBin)
	setString(&c.Workdir, fc.Workdir)
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.NATSURL, fc.NATSURL)
	setString(&c.ExportS3Bucket, fc.Export.S3Bucket)
	setString(&c.ExportS3Endpoint, fc.Export.S3Endpoint)
	setString(&c.ExportS3Region, fc.Export.S3Region)
	setString(&c.ExportS3Prefix, fc.Export.S3Prefix)
	if len(fc.Roots) > 0 {
		c.Roots = fc.Roots
	}
	if fc.DetectChanges != nil {
		c.DetectChanges = *fc.DetectChanges
	}
	if err := setDuration(&c.PollInterval, fc.PollInterval, "poll_interval"); err != nil {
		return err
	}
	return setDuration(&c.TrackerTimeout, fc.TrackerTimeout, "tracker_timeout")
}

func (c *Config) applyEnv() error {
	setString(&c.TrackerBin, os.Getenv("BEADSCOPE_TRACKER_BIN"))
	setString(&c.Workdir, os.Getenv("BEADSCOPE_WORKDIR"))
	setString(&c.HTTPAddr, os.Getenv("BEADSCOPE_HTTP_ADDR"))
	setString(&c.NATSURL, os.Getenv("BEADSCOPE_NATS_URL"))
	setString(&c.ExportS3Bucket, os.Getenv("BEADSCOPE_EXPORT_S3_BUCKET"))
	setString(&c.ExportS3Endpoint, os.Getenv("BEADSCOPE_EXPORT_S3_ENDPOINT"))
	setString(&c.ExportS3Region, os.Getenv("BEADSCOPE_EXPORT_S3_REGION"))
	setString(&c.ExportS3Prefix, os.Getenv("BEADSCOPE_EXPORT_S3_PREFIX"))

	if v := os.Getenv("BEADSCOPE_ROOTS"); v != "" {
		c.Roots = c.Roots[:0]
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				c.Roots = append(c.Roots, id)
			}
		}
	}
	if v := os.Getenv("BEADSCOPE_DETECT_CHANGES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BEADSCOPE_DETECT_CHANGES: %w", err)
		}
		c.DetectChanges = b
	}
	if err := setDuration(&c.PollInterval, os.Getenv("BEADSCOPE_POLL_INTERVAL"), "BEADSCOPE_POLL_INTERVAL"); err != nil {
		return err
	}
	return setDuration(&c.TrackerTimeout, os.Getenv("BEADSCOPE_TRACKER_TIMEOUT"), "BEADSCOPE_TRACKER_TIMEOUT")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
