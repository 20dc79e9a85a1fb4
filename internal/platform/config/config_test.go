package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadBoard_Defaults(t *testing.T) {
	cfg, err := LoadBoard()
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.APIURL != "http://localhost:8000" || cfg.RateLimit != 10 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.APITimeout != 0 {
		t.Errorf("APITimeout = %v, want no timeout by default", cfg.APITimeout)
	}
}

func TestLoadBoard_FromEnvironment(t *testing.T) {
	t.Setenv("ACTIVITYBOARD_API_URL", "http://api.internal:9000")
	t.Setenv("ACTIVITYBOARD_API_TIMEOUT", "3s")
	t.Setenv("ACTIVITYBOARD_TRUSTED_ORIGINS", "board.example.com,localhost:8080")

	cfg, err := LoadBoard()
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if cfg.APIURL != "http://api.internal:9000" || cfg.APITimeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.TrustedOrigins) != 2 || cfg.TrustedOrigins[1] != "localhost:8080" {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

func TestLoadBoard_RejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("ACTIVITYBOARD_RATE_LIMIT", "0")
	if _, err := LoadBoard(); err == nil {
		t.Error("expected error for zero rate limit")
	}
}

func TestLoadAPI_Defaults(t *testing.T) {
	cfg, err := LoadAPI()
	if err != nil {
		t.Fatalf("LoadAPI: %v", err)
	}
	if cfg.Addr != ":8000" || cfg.DBPath != "activities.db" || cfg.SlowQueryMs != 50 {
		t.Errorf("defaults = %+v", cfg)
	}
}

// TestLoadDotEnv_DoesNotOverride verifies explicit environment wins over the file.
func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("ACTIVITYAPI_ADDR=:7000\nACTIVITYAPI_DB_PATH=/tmp/x.db\n"), 0o600)
	t.Setenv("ACTIVITYAPI_ADDR", ":9999")
	t.Setenv("ACTIVITYAPI_DB_PATH", "")
	os.Unsetenv("ACTIVITYAPI_DB_PATH")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ACTIVITYAPI_ADDR"); got != ":9999" {
		t.Errorf("ACTIVITYAPI_ADDR = %q, want :9999", got)
	}
	if got := os.Getenv("ACTIVITYAPI_DB_PATH"); got != "/tmp/x.db" {
		t.Errorf("ACTIVITYAPI_DB_PATH = %q, want value from file", got)
	}
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadDotEnv: %v", err)
	}
}

func TestBoard_CSRFKey(t *testing.T) {
	if key, err := (Board{}).CSRFKey(); key != nil || err != nil {
		t.Errorf("empty key = %v, %v", key, err)
	}
	if _, err := (Board{CSRFKeyHex: "abcd"}).CSRFKey(); err == nil {
		t.Error("short key accepted")
	}
	if _, err := (Board{CSRFKeyHex: "zz"}).CSRFKey(); err == nil {
		t.Error("non-hex key accepted")
	}
	key, err := (Board{CSRFKeyHex: strings.Repeat("ab", 32)}).CSRFKey()
	if err != nil || len(key) != 32 {
		t.Errorf("valid key = %d bytes, %v", len(key), err)
	}
}

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, EnvProduction, "warn").Info("hidden")
	NewLogger(&buf, EnvProduction, "warn").Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info logged at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("production logs should be JSON: %s", out)
	}

	buf.Reset()
	NewLogger(&buf, "development", "debug").Debug("dev")
	if !strings.Contains(buf.String(), "msg=dev") {
		t.Errorf("development logs should be text: %s", buf.String())
	}
}
