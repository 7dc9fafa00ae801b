package delivery

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

	Create(ctx context.Context, request *models.DeliveryRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryRequest, error)
	ListForPartner(ctx context.Context, partnerID uuid.UUID, activeOnly bool) ([]models.DeliveryRequest, error)
	ListUnassigned(ctx context.Context, vendorID uuid.UUID) ([]models.DeliveryRequest, error)
	// UpdateStatusIf applies updates only while the request is still in
	// the expected status. Zero rows means a concurrent transition won.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from string, updates map[string]any) (int64, error)

	CreateResponse(ctx context.Context, response *models.PartnerResponse) error
	ListResponses(ctx context.Context, requestID uuid.UUID) ([]models.PartnerResponse, error)

	AppendTrackingPoint(ctx context.Context, point *models.TrackingPoint) error
	ListTrackingPoints(ctx context.Context, requestID uuid.UUID, limit int) ([]models.TrackingPoint, error)
	PruneTrackingPoints(ctx context.Context, requestID uuid.UUID, keep int) error

	GetPartner(ctx context.Context, id uuid.UUID) (*models.DeliveryPartner, error)
	GetPartnerByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPartner, error)
	ListOnDutyPartners(ctx context.Context) ([]models.DeliveryPartner, error)
	UpdatePartnerLocation(ctx context.Context, partnerID uuid.UUID, lat, lng float64, at time.Time) error
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

func (r *repo) Create(ctx context.Context, request *models.DeliveryRequest) error {
	return r.conn(ctx).Create(request).Error
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	var request models.DeliveryRequest
	err := r.conn(ctx).
		Preload("Order").
		Preload("Order.Items").
		Preload("Vendor").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryRequest, error) {
	var request models.DeliveryRequest
	if err := r.conn(ctx).First(&request, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

var activeStatuses = []string{"assigned", "accepted", "picked_up", "out_for_delivery"}

func (r *repo) ListForPartner(ctx context.Context, partnerID uuid.UUID, activeOnly bool) ([]models.DeliveryRequest, error) {
	q := r.conn(ctx).
		Preload("Order").
		Where("partner_id = ?", partnerID)
	if activeOnly {
		q = q.Where("status IN ?", activeStatuses)
	}

	var out []models.DeliveryRequest
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *repo) ListUnassigned(ctx context.Context, vendorID uuid.UUID) ([]models.DeliveryRequest, error) {
	var out []models.DeliveryRequest
	err := r.conn(ctx).
		Preload("Order").
		Where("vendor_id = ? AND status IN ?", vendorID, []string{"pending", "rejected_by_partner"}).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *repo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from string, updates map[string]any) (int64, error) {
	res := r.conn(ctx).
		Model(&models.DeliveryRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repo) CreateResponse(ctx context.Context, response *models.PartnerResponse) error {
	return r.conn(ctx).Create(response).Error
}

func (r *repo) ListResponses(ctx context.Context, requestID uuid.UUID) ([]models.PartnerResponse, error) {
	var out []models.PartnerResponse
	err := r.conn(ctx).
		Where("delivery_request_id = ?", requestID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *repo) AppendTrackingPoint(ctx context.Context, point *models.TrackingPoint) error {
	return r.conn(ctx).Create(point).Error
}

func (r *repo) ListTrackingPoints(ctx context.Context, requestID uuid.UUID, limit int) ([]models.TrackingPoint, error) {
	var out []models.TrackingPoint
	err := r.conn(ctx).
		Where("delivery_request_id = ?", requestID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repo) PruneTrackingPoints(ctx context.Context, requestID uuid.UUID, keep int) error {
	sub := r.conn(ctx).
		Model(&models.TrackingPoint{}).
		Select("id").
		Where("delivery_request_id = ?", requestID).
		Order("recorded_at DESC").
		Limit(keep)
	return r.conn(ctx).
		Where("delivery_request_id = ? AND id NOT IN (?)", requestID, sub).
		Delete(&models.TrackingPoint{}).Error
}

func (r *repo) GetPartner(ctx context.Context, id uuid.UUID) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.conn(ctx).Preload("User").First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *repo) GetPartnerByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.conn(ctx).First(&partner, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *repo) ListOnDutyPartners(ctx context.Context) ([]models.DeliveryPartner, error) {
	var out []models.DeliveryPartner
	err := r.conn(ctx).
		Preload("User").
		Where("on_duty AND approved").
		Find(&out).Error
	return out, err
}

func (r *repo) UpdatePartnerLocation(ctx context.Context, partnerID uuid.UUID, lat, lng float64, at time.Time) error {
	return r.conn(ctx).
		Model(&models.DeliveryPartner{}).
		Where("id = ?", partnerID).
		Updates(map[string]any{
			"last_latitude":       lat,
			"last_longitude":      lng,
			"location_updated_at": at,
		}).Error
}
