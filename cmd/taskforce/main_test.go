package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// execute runs the root command with a quiet config in a temp dir.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "taskforce.json")
	if err := os.WriteFile(cfgPath, []byte(`{"server": {"log_level": "error"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,pm25,pm10,no2,city\n")
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range []int{10, 10, 10, 20, 20, 20, 40, 40, 40} {
		fmt.Fprintf(&b, "%s,%d,30,12,Springfield\n", start.AddDate(0, 0, i).Format(time.DateOnly), v)
	}
	path := filepath.Join(t.TempDir(), "readings.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRolesCommand(t *testing.T) {
	out, err := execute(t, "roles")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"news_analyst", "Policy Reviewer", "Innovation Opportunities", "data_analyst"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandMarkdown(t *testing.T) {
	out, err := execute(t, "run", "--location", "Springfield", "--roles", "data,news", "--csv", writeCSV(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "# Sustainability Proposal for Springfield") {
		t.Errorf("unexpected heading:\n%s", out)
	}
	if !strings.Contains(out, "pm25: 23.33, rising") {
		t.Errorf("missing trend line:\n%s", out)
	}
	if strings.Contains(out, "Policy Landscape") {
		t.Errorf("policy section should not run:\n%s", out)
	}
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, "run", "--json", "--location", "Quetta")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Proposal struct {
			Location string `json:"location"`
			Sections []struct {
				Role string `json:"role"`
			} `json:"sections"`
		} `json:"proposal"`
		Markdown string `json:"markdown"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if body.Proposal.Location != "Quetta" || len(body.Proposal.Sections) != 4 {
		t.Errorf("got %+v", body.Proposal)
	}
	if body.Markdown == "" {
		t.Error("missing markdown")
	}
}

func TestRunCommandEmptyRoles(t *testing.T) {
	out, err := execute(t, "run", "--roles", "", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"sections": []`) {
		t.Errorf("expected no sections:\n%s", out)
	}
}

func TestRunCommandErrors(t *testing.T) {
	if _, err := execute(t, "run", "--roles", "weather"); err == nil {
		t.Error("expected error for unknown role")
	}
	if _, err := execute(t, "run", "--csv", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing csv")
	}
	if _, err := execute(t, "run", "--csv", "x.csv", "--demo"); err == nil {
		t.Error("expected error for --csv with --demo")
	}
}

func TestDemoCSVCommand(t *testing.T) {
	out, err := execute(t, "demo-csv", "--city", "Lahore")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 31 {
		t.Fatalf("got %d lines, want header + 30 rows", len(lines))
	}
	if !strings.HasSuffix(lines[1], "Lahore") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestBadConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.json"), "roles"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for explicit missing config")
	}
}
