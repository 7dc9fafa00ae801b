package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
)

type Repo interface {
	WithTx(tx *gorm.DB) Repo
	Upsert(ctx context.Context, item *models.CartItem) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
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

func (r *repo) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
}

func (r *repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	err := r.conn(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *repo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return r.conn(ctx).Delete(&models.CartItem{}, "user_id = ? AND product_id = ?", userID, productID).Error
}

func (r *repo) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.conn(ctx).Delete(&models.CartItem{}, "user_id = ?", userID).Error
}
