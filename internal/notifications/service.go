package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

// Service serves each user's notification feed and persists new
// entries. Retention is capped per recipient so the feed stays bounded.
type Service struct {
	repo         Repo
	retentionCap int
	logg         *logger.Logger
}

func NewService(repo Repo, retentionCap int, logg *logger.Logger) *Service {
	if retentionCap <= 0 {
		retentionCap = 100
	}
	return &Service{repo: repo, retentionCap: retentionCap, logg: logg}
}

func (s *Service) Notify(ctx context.Context, recipientID uuid.UUID, ntype enums.NotificationType, title, body string, data types.JSONB) error {
	if !ntype.IsValid() {
		return errors.New(errors.CodeValidation, "unknown notification type")
	}

	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Body:        body,
		Data:        data,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "create notification")
	}

	if err := s.repo.Prune(ctx, recipientID, s.retentionCap); err != nil {
		s.logg.Warn(ctx, "notification retention prune failed")
	}
	return nil
}

func (s *Service) Feed(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > s.retentionCap {
		limit = 50
	}
	out, err := s.repo.ListForRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list notifications")
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "count unread")
	}
	return count, nil
}

func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	affected, err := s.repo.MarkRead(ctx, recipientID, notificationID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "mark read")
	}
	if affected == 0 {
		return errors.New(errors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, recipientID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "mark all read")
	}
	return nil
}
