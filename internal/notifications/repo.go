package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
)

type Repo interface {
	WithTx(tx *gorm.DB) Repo
	Create(ctx context.Context, notification *models.Notification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
	// Prune keeps the newest rows per recipient and deletes the rest.
	Prune(ctx context.Context, recipientID uuid.UUID, keep int) error
}

type repo struct {
	client *db.Client
	tx     *gorm.DB
}

func NewRepo(client *db.Client) Repo {
	return &repo{client: client}
}

func (r *repo) WithTx(tx *gorm.DB) Repo {
	return &repo{client: r.client, tx: tx}
}

func (r *repo) conn(ctx context.Context) *gorm.DB {
	if r.tx != nil {
		return r.tx.WithContext(ctx)
	}
	return r.client.Gorm().WithContext(ctx)
}

func (r *repo) Create(ctx context.Context, notification *models.Notification) error {
	return r.conn(ctx).Create(notification).Error
}

func (r *repo) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := r.conn(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repo) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}

func (r *repo) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (int64, error) {
	res := r.conn(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", notificationID, recipientID).
		Update("read_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

func (r *repo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return r.conn(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", time.Now().UTC()).Error
}

func (r *repo) Prune(ctx context.Context, recipientID uuid.UUID, keep int) error {
	sub := r.conn(ctx).
		Model(&models.Notification{}).
		Select("id").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(keep)
	return r.conn(ctx).
		Where("recipient_id = ? AND id NOT IN (?)", recipientID, sub).
		Delete(&models.Notification{}).Error
}
