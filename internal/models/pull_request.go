package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PullRequest is a tracked pull request. Only the coordinates are persisted;
// title, state, labels and author are fetched live from GitHub.
type PullRequest struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	PullRequestNumber int            `gorm:"not null;uniqueIndex:idx_pr_repo_number" json:"pull_request_number"`
	Repository        string         `gorm:"size:200;not null;uniqueIndex:idx_pr_repo_number" json:"repository"` // owner/repo
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PullRequest) TableName() string { return "pull_requests" }

// SplitRepository splits the stored "owner/repo" coordinate.
func (p *PullRequest) SplitRepository() (owner, repo string, err error) {
	parts := strings.SplitN(p.Repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", p.Repository)
	}
	return parts[0], parts[1], nil
}
