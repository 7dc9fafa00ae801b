package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
)

// OpenDB returns an isolated in-memory database with the full schema.
// Each call gets its own database so tests stay independent.
func OpenDB(t *testing.T) *db.Client {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Vendor{},
		&models.VendorInvitation{},
		&models.DeliveryPartner{},
		&models.Product{},
		&models.CartItem{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryRequest{},
		&models.PartnerResponse{},
		&models.TrackingPoint{},
		&models.Notification{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate schema: %v", err)
	}

	return db.FromGorm(gdb)
}
