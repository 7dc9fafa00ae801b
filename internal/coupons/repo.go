package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
)

type Repo interface {
	WithTx(tx *gorm.DB) Repo
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, vendorID *uuid.UUID) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	// IncrementUsage advances used_count only while the limit holds.
	// Returns the number of rows updated; 0 means the coupon was
	// exhausted, deactivated or expired in the meantime.
	IncrementUsage(ctx context.Context, couponID uuid.UUID) (int64, error)
	DecrementUsage(ctx context.Context, couponID uuid.UUID) error
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

func (r *repo) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	return r.conn(ctx).Create(coupon).Error
}

func (r *repo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.conn(ctx).First(&coupon, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repo) List(ctx context.Context, vendorID *uuid.UUID) ([]models.Coupon, error) {
	q := r.conn(ctx).Model(&models.Coupon{})
	if vendorID != nil {
		q = q.Where("vendor_id = ? OR vendor_id IS NULL", vendorID.String())
	}
	var out []models.Coupon
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *repo) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.conn(ctx).Save(coupon).Error
}

func (r *repo) IncrementUsage(ctx context.Context, couponID uuid.UUID) (int64, error) {
	res := r.conn(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND active AND (usage_limit = 0 OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	return res.RowsAffected, res.Error
}

func (r *repo) DecrementUsage(ctx context.Context, couponID uuid.UUID) error {
	return r.conn(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", couponID).
		Update("used_count", gorm.Expr("used_count - 1")).Error
}
