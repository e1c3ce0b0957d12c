//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

var baseURL string

func TestMain(m *testing.M) {
	baseURL = os.Getenv("TASKFORCE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Wait for server readiness (up to 30s)
	ready := false
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				ready = true
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	if !ready {
		fmt.Fprintf(os.Stderr, "server at %s not ready after 30s\n", baseURL)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

type section struct {
	Role  string `json:"role"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type proposalResponse struct {
	Proposal struct {
		RunID    string    `json:"run_id"`
		Location string    `json:"location"`
		Sections []section `json:"sections"`
	} `json:"proposal"`
	Markdown string `json:"markdown"`
}

// post sends a JSON body and returns the raw response after checking status.
func post(t *testing.T, path string, body interface{}, wantStatus int) []byte {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d, want %d: %s", path, resp.StatusCode, wantStatus, raw)
	}
	return raw
}

func TestFullTeamProposal(t *testing.T) {
	raw := post(t, "/api/proposals", map[string]interface{}{"location": "Karachi", "demo": true}, http.StatusOK)

	var pr proposalResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		t.Fatalf("unmarshal response: %v (body: %s)", err, raw)
	}
	if len(pr.Proposal.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(pr.Proposal.Sections))
	}
	if pr.Proposal.RunID == "" {
		t.Error("missing run id")
	}
	if !strings.Contains(pr.Markdown, "Recommended Actions (Draft)") {
		t.Errorf("markdown missing recommendations: %.300s", pr.Markdown)
	}
	t.Logf("markdown: %.300s", pr.Markdown)
}

func TestSchemaErrorIsolated(t *testing.T) {
	csv := "date,pm25,city\n2025-01-01,12,Springfield\n"
	raw := post(t, "/api/proposals", map[string]interface{}{"location": "Springfield", "csv": csv}, http.StatusOK)

	var pr proposalResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	for _, s := range pr.Proposal.Sections {
		isNotice := strings.HasPrefix(s.Text, "Notice:")
		if s.Role == "data_analyst" && !isNotice {
			t.Errorf("data section should be a notice: %s", s.Text)
		}
		if s.Role != "data_analyst" && isNotice {
			t.Errorf("%s section should be unaffected: %s", s.Role, s.Text)
		}
	}
}

func TestSingleAgent(t *testing.T) {
	raw := post(t, "/api/agents/innovations_scout/run", map[string]interface{}{"limit": 3}, http.StatusOK)
	var res struct {
		Findings []struct {
			SourceTag string `json:"source_tag"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(res.Findings) == 0 || len(res.Findings) > 3 {
		t.Errorf("got %d findings", len(res.Findings))
	}
}

func TestUnknownRole(t *testing.T) {
	post(t, "/api/agents/weather/run", map[string]interface{}{}, http.StatusBadRequest)
}
