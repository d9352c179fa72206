package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
)

// Ledger persists which orders were already pushed to the partner, so the
// sync relay survives restarts without duplicating bookings downstream.
type Ledger struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewLedger(db *gorm.DB, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, logger: logger}
}

func (l *Ledger) Migrate() error {
	return l.db.AutoMigrate(&syncedBookingModel{})
}

type syncedBookingModel struct {
	OrderID          string    `gorm:"column:order_id;primaryKey"`
	PartnerBookingID string    `gorm:"column:partner_booking_id"`
	SyncedAt         time.Time `gorm:"column:synced_at"`
}

func (syncedBookingModel) TableName() string { return "synced_bookings" }

func (l *Ledger) AlreadySynced(ctx context.Context, orderID string) (bool, error) {
	var row syncedBookingModel
	err := l.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check sync ledger: %w", err)
	}
	return true, nil
}

func (l *Ledger) MarkSynced(ctx context.Context, orderID, partnerBookingID string) error {
	row := syncedBookingModel{
		OrderID:          strings.TrimSpace(orderID),
		PartnerBookingID: partnerBookingID,
		SyncedAt:         time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Another run marked it first; the order is synced either way.
			return nil
		}
		return fmt.Errorf("mark sync ledger: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
