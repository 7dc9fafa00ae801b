package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/pagination"
)

type ListFilter struct {
	VendorID      *uuid.UUID
	Category      string
	OnlyAvailable bool
}

type Repo interface {
	WithTx(tx *gorm.DB) Repo
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	// DecrementStock atomically reserves quantity units; returns the
	// number of rows updated (0 when stock was insufficient).
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int64, error)
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
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

func (r *repo) Create(ctx context.Context, product *models.Product) error {
	return r.conn(ctx).Create(product).Error
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.conn(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	err := r.conn(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *repo) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	q := r.conn(ctx).Model(&models.Product{})

	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.OnlyAvailable {
		q = q.Where("available AND stock > 0")
	}
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var out []models.Product
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *repo) Update(ctx context.Context, product *models.Product) error {
	return r.conn(ctx).Save(product).Error
}

func (r *repo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	res := r.conn(ctx).
		Model(&models.Product{}).
		Where("id = ? AND available AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	return res.RowsAffected, res.Error
}

func (r *repo) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.conn(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}
