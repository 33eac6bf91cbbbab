package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devboardhq/devboard/internal/models"
)

func TestIsTerminalStatus(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"success", true},
		{"failed", true},
		{"canceled", true},
		{"skipped", true},
		{"created", false},
		{"waiting_for_resource", false},
		{"preparing", false},
		{"pending", false},
		{"running", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsTerminalStatus(c.status); got != c.want {
			t.Errorf("IsTerminalStatus(%q) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestPipelineRunOutcome(t *testing.T) {
	ok := PipelineRun{Status: "success"}
	if !ok.Passed() || ok.Failed() {
		t.Error("success run should pass and not fail")
	}
	bad := PipelineRun{Status: "failed"}
	if bad.Passed() || !bad.Failed() {
		t.Error("failed run should fail and not pass")
	}
	canceled := PipelineRun{Status: "canceled"}
	if canceled.Passed() || canceled.Failed() {
		t.Error("canceled run is terminal but neither passed nor failed")
	}
}

func TestPipelineClientTrigger(t *testing.T) {
	var gotPath, gotToken, gotRef string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		gotRef = r.URL.Query().Get("ref")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 4213, "status": "created", "ref": "main", "web_url": "https://ci.example.com/p/4213", "created_at": "2026-08-29T08:00:00Z"}`)
	}))
	defer server.Close()

	client := NewPipelineClient()
	cfg := &models.TriggerConfig{BaseURL: server.URL, ProjectID: "42", Token: "glptt-abc", Ref: "main"}

	run, err := client.Trigger(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if gotPath != "/api/v4/projects/42/trigger/pipeline" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotToken != "glptt-abc" || gotRef != "main" {
		t.Errorf("token/ref = %q/%q", gotToken, gotRef)
	}
	if run.ID != "4213" || run.Status != "created" {
		t.Errorf("run = %+v", run)
	}
}

func TestPipelineClientTriggerRejectsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "404 Project Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewPipelineClient()
	cfg := &models.TriggerConfig{BaseURL: server.URL, ProjectID: "42", Ref: "main"}
	if _, err := client.Trigger(context.Background(), cfg); err == nil {
		t.Fatal("expected error on 404 response")
	}
}

func TestPipelineClientGetRunSendsToken(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("PRIVATE-TOKEN")
		fmt.Fprint(w, `{"id": 99, "status": "running", "ref": "main", "created_at": "2026-08-29T08:00:00Z"}`)
	}))
	defer server.Close()

	client := NewPipelineClient()
	cfg := &models.TriggerConfig{BaseURL: server.URL, ProjectID: "42", Token: "secret", Ref: "main"}

	run, err := client.GetRun(context.Background(), cfg, "99")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if gotHeader != "secret" {
		t.Errorf("PRIVATE-TOKEN = %q, want secret", gotHeader)
	}
	if run.Status != "running" {
		t.Errorf("status = %q, want running", run.Status)
	}
}
