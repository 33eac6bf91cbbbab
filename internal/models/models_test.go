package models

import (
	"testing"
	"time"
)

func TestParseTriggerConfig(t *testing.T) {
	app := Application{
		Code:                    "checkout",
		E2ETriggerConfiguration: `{"provider":"gitlab","base_url":"https://ci.example.com","project_id":"42","token":"t"}`,
	}

	cfg, err := app.ParseTriggerConfig()
	if err != nil {
		t.Fatalf("ParseTriggerConfig failed: %v", err)
	}
	if cfg.BaseURL != "https://ci.example.com" || cfg.ProjectID != "42" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Ref != "main" {
		t.Errorf("Ref = %q, want default main", cfg.Ref)
	}
}

func TestParseTriggerConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"invalid json", "{"},
		{"missing base_url", `{"project_id":"42"}`},
		{"missing project_id", `{"base_url":"https://ci.example.com"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			app := Application{Code: "x", E2ETriggerConfiguration: c.raw}
			if _, err := app.ParseTriggerConfig(); err == nil {
				t.Errorf("expected error for %q", c.raw)
			}
		})
	}
}

func TestSplitRepository(t *testing.T) {
	pr := PullRequest{Repository: "devboardhq/devboard"}
	owner, repo, err := pr.SplitRepository()
	if err != nil {
		t.Fatalf("SplitRepository failed: %v", err)
	}
	if owner != "devboardhq" || repo != "devboard" {
		t.Errorf("got %q/%q", owner, repo)
	}

	for _, bad := range []string{"", "noslash", "/repo", "owner/"} {
		pr := PullRequest{Repository: bad}
		if _, _, err := pr.SplitRepository(); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTodoIsOverdue(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		todo Todo
		want bool
	}{
		{"past due", Todo{DueDate: &past}, true},
		{"future due", Todo{DueDate: &future}, false},
		{"no due date", Todo{}, false},
		{"completed", Todo{DueDate: &past, IsCompleted: true}, false},
	}
	for _, c := range cases {
		if got := c.todo.IsOverdue(now); got != c.want {
			t.Errorf("%s: IsOverdue = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTodoIsDueOn(t *testing.T) {
	due := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	todo := Todo{DueDate: &due}

	sameDay := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)

	if !todo.IsDueOn(sameDay) {
		t.Error("same calendar day should match regardless of time")
	}
	if todo.IsDueOn(nextDay) {
		t.Error("different day should not match")
	}
	if (&Todo{}).IsDueOn(sameDay) {
		t.Error("todo without due date is never due")
	}
}

func TestValidNotificationType(t *testing.T) {
	for _, valid := range []string{"info", "success", "warning", "error"} {
		if !ValidNotificationType(valid) {
			t.Errorf("%q should be valid", valid)
		}
	}
	for _, invalid := range []string{"", "critical", "INFO"} {
		if ValidNotificationType(invalid) {
			t.Errorf("%q should be invalid", invalid)
		}
	}
}
