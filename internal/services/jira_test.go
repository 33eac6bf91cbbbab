package services

import (
	"testing"

	"github.com/devboardhq/devboard/internal/config"
)

func TestJiraEnabled(t *testing.T) {
	if NewJiraService(&config.JiraConfig{}).Enabled() {
		t.Error("service without base_url must report disabled")
	}
	if !NewJiraService(&config.JiraConfig{BaseURL: "https://example.atlassian.net"}).Enabled() {
		t.Error("service with base_url must report enabled")
	}
}

func TestJiraDefaultJQL(t *testing.T) {
	svc := NewJiraService(&config.JiraConfig{
		BaseURL:         "https://example.atlassian.net",
		DefaultAssignee: "jsmith",
	})
	want := `assignee = "jsmith" AND statusCategory != Done ORDER BY updated DESC`
	if got := svc.defaultJQL(); got != want {
		t.Errorf("defaultJQL = %q, want %q", got, want)
	}
}

func TestJiraDefaultJQLFallsBackToCurrentUser(t *testing.T) {
	svc := NewJiraService(&config.JiraConfig{BaseURL: "https://example.atlassian.net"})
	want := "assignee = currentUser() AND statusCategory != Done ORDER BY updated DESC"
	if got := svc.defaultJQL(); got != want {
		t.Errorf("defaultJQL = %q, want %q", got, want)
	}
}
