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

// NotificationService is the consumer side of the notification pipeline:
// it persists notifications, keeps the unread badge in sync over SSE, and
// hands delivery off to the push queue.
type NotificationService struct {
	db    *gorm.DB
	hub   *SSEHub
	queue DeliveryQueue
}

func NewNotificationService(db *gorm.DB, hub *SSEHub, queue DeliveryQueue) *NotificationService {
	return &NotificationService{db: db, hub: hub, queue: queue}
}

type NotificationListRequest struct {
	Page     int   `form:"page" binding:"min=0"`
	PageSize int   `form:"page_size" binding:"min=0,max=100"`
	Unread   *bool `form:"unread"`
}

type NotificationListResponse struct {
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Items    []models.Notification `json:"items"`
}

func (s *NotificationService) List(req *NotificationListRequest) (*NotificationListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var items []models.Notification
	var total int64

	query := s.db.Model(&models.Notification{})
	if req.Unread != nil {
		query = query.Where("`read` = ?", !*req.Unread)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	return &NotificationListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).Where("`read` = ?", false).Count(&count).Error
	return count, err
}

// MarkRead marks one notification read and rebroadcasts the unread count.
func (s *NotificationService) MarkRead(id uint) error {
	result := s.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		s.db.Model(&models.Notification{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return response.NewNotFound("notification not found")
		}
	}
	s.broadcastUnread(nil)
	return nil
}

// MarkAllRead marks every notification read.
func (s *NotificationService) MarkAllRead() (int64, error) {
	result := s.db.Model(&models.Notification{}).Where("`read` = ?", false).Update("read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	s.broadcastUnread(nil)
	return result.RowsAffected, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(id uint) error {
	result := s.db.Delete(&models.Notification{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("notification not found")
	}
	s.broadcastUnread(nil)
	return nil
}

// HandleCreate is the bus consumer: persist the notification, update the
// badge, and enqueue push delivery.
func (s *NotificationService) HandleCreate(ctx context.Context, n *CreateNotification) error {
	if n.Title == "" {
		return errors.New("notification title is required")
	}
	notifType := n.Type
	if !models.ValidNotificationType(notifType) {
		notifType = models.NotificationTypeInfo
	}

	notification := models.Notification{
		Title:   n.Title,
		Message: n.Message,
		Type:    notifType,
		Link:    n.Link,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return err
	}

	s.broadcastUnread(&notification)

	if s.queue != nil {
		if err := s.queue.Enqueue(notification.ID); err != nil {
			logger.Warn().Err(err).Uint("notification_id", notification.ID).Msg("failed to enqueue push delivery")
		}
	}
	return nil
}

func (s *NotificationService) broadcastUnread(n *models.Notification) {
	if s.hub == nil {
		return
	}
	count, err := s.UnreadCount()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to count unread notifications")
		return
	}
	s.hub.Publish(NotificationEvent{UnreadCount: count, Notification: n})
}

// CleanupOld deletes notifications older than retentionDays.
func (s *NotificationService) CleanupOld(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
