package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/gorm"
)

// PushService sends web push messages to the browser subscriptions the
// client's service worker registered.
type PushService struct {
	db  *gorm.DB
	cfg *config.PushConfig
}

func NewPushService(db *gorm.DB, cfg *config.PushConfig) *PushService {
	return &PushService{db: db, cfg: cfg}
}

type RegisterSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256DH string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Register stores a push subscription. Re-registering an endpoint updates
// its keys.
func (s *PushService) Register(req *RegisterSubscriptionRequest, userAgent string) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	err := s.db.Where("endpoint = ?", req.Endpoint).First(&sub).Error
	if err == nil {
		sub.P256DH = req.Keys.P256DH
		sub.Auth = req.Keys.Auth
		sub.UserAgent = userAgent
		if err := s.db.Save(&sub).Error; err != nil {
			return nil, err
		}
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub = models.PushSubscription{
		Endpoint:  req.Endpoint,
		P256DH:    req.Keys.P256DH,
		Auth:      req.Keys.Auth,
		UserAgent: userAgent,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Unregister removes a subscription by endpoint.
func (s *PushService) Unregister(endpoint string) error {
	result := s.db.Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("subscription not found")
	}
	return nil
}

// VAPIDPublicKey is exposed so the client can subscribe.
func (s *PushService) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// pushPayload is what the service worker receives.
type pushPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link,omitempty"`
}

// Deliver sends a persisted notification to every registered subscription.
// Gone subscriptions (404/410) are pruned; other per-subscription failures
// are logged and counted but do not fail the whole delivery.
func (s *PushService) Deliver(ctx context.Context, notificationID uint) error {
	if !s.cfg.Enabled || s.cfg.VAPIDPrivateKey == "" {
		return nil
	}

	var notification models.Notification
	if err := s.db.WithContext(ctx).First(&notification, notificationID).Error; err != nil {
		return fmt.Errorf("notification %d not found: %w", notificationID, err)
	}

	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		Title:   notification.Title,
		Message: notification.Message,
		Type:    notification.Type,
		Link:    notification.Link,
	})
	if err != nil {
		return err
	}

	var failed int
	for _, sub := range subs {
		if err := s.sendOne(payload, &sub); err != nil {
			failed++
			logger.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("push send failed")
		}
	}

	if failed == len(subs) {
		return fmt.Errorf("push delivery failed for all %d subscriptions", len(subs))
	}
	return nil
}

func (s *PushService) sendOne(payload []byte, sub *models.PushSubscription) error {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The push service tells us when a subscription no longer exists.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		s.db.Delete(&models.PushSubscription{}, sub.ID)
		logger.Info().Str("endpoint", sub.Endpoint).Msg("pruned dead push subscription")
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
