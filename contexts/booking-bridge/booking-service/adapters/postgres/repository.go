package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	domainerrors "cowbridge/contexts/booking-bridge/booking-service/domain/errors"
	"cowbridge/contexts/booking-bridge/booking-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the webhook-fed local mirror of the commerce store. It
// implements the order and product-metadata ports so the pipeline can run
// against local data when the live commerce API is not configured.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Migrate creates the mirror tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&orderModel{}, &productMetadataModel{}, &productTagModel{})
}

type orderModel struct {
	OrderID           string    `gorm:"column:order_id;primaryKey"`
	Name              string    `gorm:"column:name"`
	CustomerJSON      []byte    `gorm:"column:customer;type:jsonb"`
	LineItemsJSON     []byte    `gorm:"column:line_items;type:jsonb"`
	NoteAttrsJSON     []byte    `gorm:"column:note_attributes;type:jsonb"`
	CustomerEmail     string    `gorm:"column:customer_email;index"`
	FinancialStatus   string    `gorm:"column:financial_status"`
	FulfillmentStatus string    `gorm:"column:fulfillment_status"`
	OrderCreatedAt    time.Time `gorm:"column:order_created_at"`
	MirroredAt        time.Time `gorm:"column:mirrored_at"`
}

func (orderModel) TableName() string { return "order_mirror" }

type productMetadataModel struct {
	ProductID string `gorm:"column:product_id;primaryKey"`
	Key       string `gorm:"column:key;primaryKey"`
	Value     string `gorm:"column:value"`
}

func (productMetadataModel) TableName() string { return "product_metadata_mirror" }

type productTagModel struct {
	ProductID string `gorm:"column:product_id;primaryKey"`
	Tag       string `gorm:"column:tag;primaryKey"`
}

func (productTagModel) TableName() string { return "product_tag_mirror" }

func (r *Repository) FetchOrders(ctx context.Context, filter ports.OrderFilter) ([]entities.RawOrder, error) {
	limit := filter.Limit
	if limit <= 0 || limit > ports.MaxFetchLimit {
		limit = ports.MaxFetchLimit
	}

	tx := r.db.WithContext(ctx).Model(&orderModel{})
	if strings.TrimSpace(filter.Email) != "" {
		tx = tx.Where("customer_email = ?", strings.TrimSpace(filter.Email))
	}
	if len(filter.Statuses) > 0 {
		tx = tx.Where("financial_status IN ?", filter.Statuses)
	}

	var rows []orderModel
	if err := tx.Order("order_created_at ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list mirrored orders: %w", err)
	}

	out := make([]entities.RawOrder, 0, len(rows))
	for _, row := range rows {
		order, err := row.toEntity()
		if err != nil {
			r.logger.Warn("skipping undecodable mirrored order",
				"event", "order_mirror_decode_failed",
				"module", "booking-bridge/booking-service",
				"layer", "adapter",
				"order_id", row.OrderID,
				"error", err.Error(),
			)
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (r *Repository) FetchOrderByID(ctx context.Context, orderID string) (entities.RawOrder, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RawOrder{}, domainerrors.ErrOrderNotFound
		}
		return entities.RawOrder{}, fmt.Errorf("get mirrored order: %w", err)
	}
	return row.toEntity()
}

func (r *Repository) FetchCustomMetadata(ctx context.Context, productID string) (map[string]string, error) {
	var rows []productMetadataModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", strings.TrimSpace(productID)).
		Find(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("list product metadata: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *Repository) FetchTags(ctx context.Context, productID string) ([]string, error) {
	var rows []productTagModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", strings.TrimSpace(productID)).
		Find(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("list product tags: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Tag)
	}
	return out, nil
}

func (r *Repository) UpsertOrder(ctx context.Context, order entities.RawOrder) error {
	row, err := orderModelFromEntity(order)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return fmt.Errorf("upsert mirrored order: %w", err)
	}
	return nil
}

func (r *Repository) UpsertProductMetadata(ctx context.Context, productID string, metadata map[string]string) error {
	rows := make([]productMetadataModel, 0, len(metadata))
	for key, value := range metadata {
		rows = append(rows, productMetadataModel{ProductID: productID, Key: key, Value: value})
	}
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "key"}},
			UpdateAll: true,
		}).
		Create(&rows).
		Error
	if err != nil {
		return fmt.Errorf("upsert product metadata: %w", err)
	}
	return nil
}

func (r *Repository) ReplaceProductTags(ctx context.Context, productID string, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&productTagModel{}).Error; err != nil {
			return fmt.Errorf("clear product tags: %w", err)
		}
		if len(tags) == 0 {
			return nil
		}
		rows := make([]productTagModel, 0, len(tags))
		for _, tag := range tags {
			rows = append(rows, productTagModel{ProductID: productID, Tag: tag})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert product tags: %w", err)
		}
		return nil
	})
}

func orderModelFromEntity(order entities.RawOrder) (orderModel, error) {
	row := orderModel{
		OrderID:           strings.TrimSpace(order.ID),
		Name:              order.Name,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		OrderCreatedAt:    order.CreatedAt,
		MirroredAt:        time.Now().UTC(),
	}
	if order.Customer != nil {
		row.CustomerEmail = order.Customer.Email
		payload, err := json.Marshal(order.Customer)
		if err != nil {
			return orderModel{}, fmt.Errorf("encode customer: %w", err)
		}
		row.CustomerJSON = payload
	}
	lineItems, err := json.Marshal(order.LineItems)
	if err != nil {
		return orderModel{}, fmt.Errorf("encode line items: %w", err)
	}
	row.LineItemsJSON = lineItems
	noteAttrs, err := json.Marshal(order.NoteAttributes)
	if err != nil {
		return orderModel{}, fmt.Errorf("encode note attributes: %w", err)
	}
	row.NoteAttrsJSON = noteAttrs
	return row, nil
}

func (m orderModel) toEntity() (entities.RawOrder, error) {
	order := entities.RawOrder{
		ID:                m.OrderID,
		Name:              m.Name,
		CreatedAt:         m.OrderCreatedAt,
		FinancialStatus:   m.FinancialStatus,
		FulfillmentStatus: m.FulfillmentStatus,
	}
	if len(m.CustomerJSON) > 0 {
		var customer entities.Customer
		if err := json.Unmarshal(m.CustomerJSON, &customer); err != nil {
			return entities.RawOrder{}, fmt.Errorf("decode customer: %w", err)
		}
		order.Customer = &customer
	}
	if len(m.LineItemsJSON) > 0 {
		if err := json.Unmarshal(m.LineItemsJSON, &order.LineItems); err != nil {
			return entities.RawOrder{}, fmt.Errorf("decode line items: %w", err)
		}
	}
	if len(m.NoteAttrsJSON) > 0 {
		if err := json.Unmarshal(m.NoteAttrsJSON, &order.NoteAttributes); err != nil {
			return entities.RawOrder{}, fmt.Errorf("decode note attributes: %w", err)
		}
	}
	return order, nil
}
