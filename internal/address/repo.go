package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
)

type Repo interface {
	WithTx(tx *gorm.DB) Repo
	Create(ctx context.Context, addr *models.Address) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	Update(ctx context.Context, addr *models.Address) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
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

func (r *repo) Create(ctx context.Context, addr *models.Address) error {
	return r.conn(ctx).Create(addr).Error
}

func (r *repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := r.conn(ctx).First(&addr, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *repo) Update(ctx context.Context, addr *models.Address) error {
	return r.conn(ctx).Save(addr).Error
}

func (r *repo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.conn(ctx).Delete(&models.Address{}, "id = ? AND user_id = ?", id, userID).Error
}

func (r *repo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.conn(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		Update("is_default", false).Error
}
