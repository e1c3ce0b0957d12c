package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nidhogg/taskforce/internal/agent"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}

	oc := cfg.Orchestrator()
	if diff := cmp.Diff(agent.Roles(), oc.EnabledRoles); diff != "" {
		t.Errorf("enabled roles mismatch (-want +got):\n%s", diff)
	}
	if !oc.DemoFallback || oc.FindingLimit != 5 || oc.DefaultLocation != "Karachi" {
		t.Errorf("got %+v", oc)
	}

	pc := cfg.Providers()
	if pc.Limiter != nil {
		t.Error("limiter should be off by default")
	}
	if pc.Retry.MaxRetries != 2 || pc.Retry.InitialInterval != 100*time.Millisecond {
		t.Errorf("retry = %+v", pc.Retry)
	}
}

func TestParseSubstitutesEnv(t *testing.T) {
	t.Setenv("TF_TEST_PORT", "9191")
	t.Setenv("TF_TEST_CITY", "")

	cfg, err := Parse([]byte(`{
		"server": {"port": ${TF_TEST_PORT:8080}},
		"team": {"default_location": "${TF_TEST_CITY:Lahore}", "demo_fallback": false}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Team.DefaultLocation != "Lahore" {
		t.Errorf("location = %q, want default Lahore", cfg.Team.DefaultLocation)
	}
	if cfg.Orchestrator().DemoFallback {
		t.Error("explicit demo_fallback false was overridden")
	}
}

func TestParseEmptyRoles(t *testing.T) {
	cfg, err := Parse([]byte(`{"team": {"enabled_roles": []}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Orchestrator().EnabledRoles; len(got) != 0 {
		t.Errorf("got %v, want no roles", got)
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	if _, err := Parse([]byte(`{"servr": {}}`)); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Team.EnabledRoles = []string{"news", "weather"}
	cfg.Team.FindingLimit = -1
	cfg.Trend.MaxUnparseableRatio = 2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"weather", "finding_limit", "max_unparseable_ratio"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestProvidersLimiter(t *testing.T) {
	cfg, err := Parse([]byte(`{"search": {"rate_per_second": 3}}`))
	if err != nil {
		t.Fatal(err)
	}
	pc := cfg.Providers()
	if pc.Limiter == nil {
		t.Fatal("expected limiter")
	}
	if pc.Limiter.Burst() != 1 {
		t.Errorf("burst = %d, want 1", pc.Limiter.Burst())
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Team.Parallel != 4 {
		t.Errorf("parallel = %d, want 4", cfg.Team.Parallel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want not-exist", err)
	}
}
