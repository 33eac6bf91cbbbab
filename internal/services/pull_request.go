package services

import (
	"context"
	"errors"
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/gorm"
)

type PullRequestService struct {
	db     *gorm.DB
	github *GitHubClient
}

func NewPullRequestService(db *gorm.DB, github *GitHubClient) *PullRequestService {
	return &PullRequestService{db: db, github: github}
}

type CreatePullRequestRequest struct {
	PullRequestNumber int    `json:"pull_request_number" binding:"required,min=1"`
	Repository        string `json:"repository" binding:"required"`
}

// PullRequestView is a tracked pull request enriched with live GitHub detail.
// FetchError is set when GitHub could not be reached; the stored coordinates
// are still returned so the dashboard can degrade instead of erroring.
type PullRequestView struct {
	models.PullRequest
	Detail     *GitHubPullRequest `json:"detail,omitempty"`
	FetchError string             `json:"fetch_error,omitempty"`
}

// List returns all tracked pull requests enriched with live detail.
func (s *PullRequestService) List(ctx context.Context) ([]PullRequestView, error) {
	var prs []models.PullRequest
	if err := s.db.Order("created_at DESC").Find(&prs).Error; err != nil {
		return nil, err
	}

	views := make([]PullRequestView, 0, len(prs))
	for _, pr := range prs {
		views = append(views, s.enrich(ctx, pr))
	}
	return views, nil
}

func (s *PullRequestService) GetByID(ctx context.Context, id uint) (*PullRequestView, error) {
	var pr models.PullRequest
	if err := s.db.First(&pr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("pull request not found")
		}
		return nil, err
	}
	view := s.enrich(ctx, pr)
	return &view, nil
}

func (s *PullRequestService) enrich(ctx context.Context, pr models.PullRequest) PullRequestView {
	view := PullRequestView{PullRequest: pr}

	owner, repo, err := pr.SplitRepository()
	if err != nil {
		view.FetchError = err.Error()
		return view
	}

	detail, err := s.github.FetchPullRequest(ctx, owner, repo, pr.PullRequestNumber)
	if err != nil {
		logger.Warn().Err(err).Str("repository", pr.Repository).Int("number", pr.PullRequestNumber).
			Msg("failed to fetch pull request detail")
		view.FetchError = err.Error()
		return view
	}

	view.Detail = detail
	return view
}

func (s *PullRequestService) Create(req *CreatePullRequestRequest) (*models.PullRequest, error) {
	pr := models.PullRequest{
		PullRequestNumber: req.PullRequestNumber,
		Repository:        req.Repository,
	}
	if _, _, err := pr.SplitRepository(); err != nil {
		return nil, response.NewBadRequest(err.Error())
	}

	var count int64
	s.db.Model(&models.PullRequest{}).
		Where("repository = ? AND pull_request_number = ?", req.Repository, req.PullRequestNumber).
		Count(&count)
	if count > 0 {
		return nil, response.NewConflict("pull request is already tracked")
	}

	if err := s.db.Create(&pr).Error; err != nil {
		return nil, err
	}
	return &pr, nil
}

func (s *PullRequestService) Delete(id uint) error {
	result := s.db.Delete(&models.PullRequest{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("pull request not found")
	}
	return nil
}

// StaleScanResult summarizes one run of the staleness job.
type StaleScanResult struct {
	Stale  []PullRequestView
	Pruned int
}

// ScanStale checks every tracked PR against GitHub, prunes rows whose PR is
// closed or merged, and returns those still open for longer than staleDays.
func (s *PullRequestService) ScanStale(ctx context.Context, staleDays int) (*StaleScanResult, error) {
	var prs []models.PullRequest
	if err := s.db.Find(&prs).Error; err != nil {
		return nil, err
	}

	result := &StaleScanResult{}
	cutoff := time.Now().AddDate(0, 0, -staleDays)

	for _, pr := range prs {
		view := s.enrich(ctx, pr)
		if view.Detail == nil {
			// Leave unreachable PRs alone; the next scan retries.
			continue
		}
		if view.Detail.State == "closed" || view.Detail.Merged {
			if err := s.db.Delete(&models.PullRequest{}, pr.ID).Error; err == nil {
				result.Pruned++
			}
			continue
		}
		if view.Detail.CreatedAt.Before(cutoff) {
			result.Stale = append(result.Stale, view)
		}
	}
	return result, nil
}
