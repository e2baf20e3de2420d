package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Jujulu67/djlarian-react-sub002/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batchsim.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected no config file")
	}
	if got := cfg.Engine.QuietPeriodDuration(); got != 300*time.Millisecond {
		t.Fatalf("quiet period: got %v", got)
	}
	if got := cfg.Engine.RequestTimeoutDuration(); got != 15*time.Second {
		t.Fatalf("request timeout: got %v", got)
	}
	if got := cfg.Resync.DelayDuration(); got != 50*time.Millisecond {
		t.Fatalf("resync delay: got %v", got)
	}
	if cfg.Endpoint.BaseURL != "http://127.0.0.1:8080" {
		t.Fatalf("base url: got %q", cfg.Endpoint.BaseURL)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Fatalf("max body bytes: got %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	_, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for a missing file")
	}
}

func TestLoadCustomFile(t *testing.T) {
	type payload struct {
		Engine struct {
			QuietPeriod string `toml:"quiet_period"`
			MaxPending  int    `toml:"max_pending"`
		} `toml:"engine"`
		Endpoint struct {
			BaseURL   string `toml:"base_url"`
			BatchPath string `toml:"batch_path"`
		} `toml:"endpoint"`
	}
	var p payload
	p.Engine.QuietPeriod = "1s"
	p.Engine.MaxPending = 64
	p.Endpoint.BaseURL = "https://inventory.example.com/"
	p.Endpoint.BatchPath = "v2/batch"

	data, err := toml.Marshal(p)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	cfg, exists, err := config.Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be read")
	}
	if got := cfg.Engine.QuietPeriodDuration(); got != time.Second {
		t.Fatalf("quiet period: got %v", got)
	}
	if cfg.Engine.MaxPending != 64 {
		t.Fatalf("max pending: got %d", cfg.Engine.MaxPending)
	}
	if cfg.Endpoint.BaseURL != "https://inventory.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Endpoint.BaseURL)
	}
	if cfg.Endpoint.BatchPath != "/v2/batch" {
		t.Fatalf("expected leading slash added, got %q", cfg.Endpoint.BatchPath)
	}
	if got := cfg.Engine.RequestTimeoutDuration(); got != 15*time.Second {
		t.Fatalf("unset fields keep defaults, got request timeout %v", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[engine]\nquiet_period = \"1s\"\n\n[server]\ntoken = \"from-file\"\n")
	t.Setenv("BATCHSIM_QUIET_PERIOD", "20ms")
	t.Setenv("BATCHSIM_SERVER_TOKEN", " from-env ")

	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Engine.QuietPeriodDuration(); got != 20*time.Millisecond {
		t.Fatalf("quiet period: got %v", got)
	}
	if cfg.Server.Token != "from-env" {
		t.Fatalf("server token: got %q", cfg.Server.Token)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[engine]\nquiet = \"1s\"\n")
	if _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"bad duration":      "[engine]\nquiet_period = \"soon\"\n",
		"zero quiet period": "[engine]\nquiet_period = \"0s\"\n",
		"negative pending":  "[engine]\nmax_pending = -1\n",
		"negative resync":   "[resync]\ndelay = \"-5ms\"\n",
		"bad scheme":        "[endpoint]\nbase_url = \"ftp://host\"\n",
		"no host":           "[endpoint]\nbase_url = \"http://\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := config.Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "batchsim.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Server.DBPath != "batchsim.db" {
		t.Fatalf("db path: got %q", cfg.Server.DBPath)
	}
}
