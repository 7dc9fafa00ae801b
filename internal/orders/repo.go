package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/pagination"
)

type ListFilter struct {
	CustomerID *uuid.UUID
	VendorID   *uuid.UUID
	Status     string
}

type Repo interface {
	WithTx(tx *gorm.DB) Repo
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	// UpdateStatusIf moves the order from one status to another in a
	// single guarded update. Zero rows means the order changed underneath.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (int64, error)
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

func (r *repo) Create(ctx context.Context, order *models.Order) error {
	return r.conn(ctx).Create(order).Error
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn(ctx).
		Preload("Items").
		Preload("DeliveryRequest").
		Preload("DeliveryRequest.Partner").
		Preload("DeliveryRequest.Partner.User").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.conn(ctx).Model(&models.Order{}).
		Preload("Items").
		Preload("DeliveryRequest")

	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var out []models.Order
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *repo) Update(ctx context.Context, order *models.Order) error {
	return r.conn(ctx).Save(order).Error
}

func (r *repo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (int64, error) {
	res := r.conn(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}
