package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
	domainerrors "cowbridge/contexts/booking-bridge/booking-service/domain/errors"
	"cowbridge/contexts/booking-bridge/booking-service/ports"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 10 * time.Second

// Client talks to the commerce platform's admin REST API. It implements the
// order-store and product-metadata ports. The fetch cap of
// ports.MaxFetchLimit is enforced here regardless of the caller's limit.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Logger:     logger,
	}
}

type orderWire struct {
	ID                json.Number    `json:"id"`
	Name              string         `json:"name"`
	Customer          *customerWire  `json:"customer"`
	LineItems         []lineItemWire `json:"line_items"`
	NoteAttributes    []propertyWire `json:"note_attributes"`
	CreatedAt         string         `json:"created_at"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
}

type customerWire struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type lineItemWire struct {
	Name       string         `json:"name"`
	Quantity   int            `json:"quantity"`
	Price      string         `json:"price"`
	Vendor     string         `json:"vendor"`
	ProductID  json.Number    `json:"product_id"`
	Properties []propertyWire `json:"properties"`
}

type propertyWire struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type metafieldWire struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

func (c *Client) FetchOrders(ctx context.Context, filter ports.OrderFilter) ([]entities.RawOrder, error) {
	limit := filter.Limit
	if limit <= 0 || limit > ports.MaxFetchLimit {
		limit = ports.MaxFetchLimit
	}

	params := url.Values{}
	params.Set("status", "any")
	params.Set("limit", strconv.Itoa(limit))
	if strings.TrimSpace(filter.Email) != "" {
		params.Set("email", strings.TrimSpace(filter.Email))
	}
	if len(filter.Statuses) > 0 {
		params.Set("financial_status", strings.Join(filter.Statuses, ","))
	}

	var body struct {
		Orders []orderWire `json:"orders"`
	}
	if err := c.get(ctx, "/orders.json?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	out := make([]entities.RawOrder, 0, len(body.Orders))
	for _, wire := range body.Orders {
		out = append(out, wire.toEntity())
	}
	return out, nil
}

func (c *Client) FetchOrderByID(ctx context.Context, orderID string) (entities.RawOrder, error) {
	var body struct {
		Order orderWire `json:"order"`
	}
	if err := c.get(ctx, "/orders/"+url.PathEscape(strings.TrimSpace(orderID))+".json", &body); err != nil {
		return entities.RawOrder{}, err
	}
	return body.Order.toEntity(), nil
}

func (c *Client) FetchCustomMetadata(ctx context.Context, productID string) (map[string]string, error) {
	var body struct {
		Metafields []metafieldWire `json:"metafields"`
	}
	if err := c.get(ctx, "/products/"+url.PathEscape(productID)+"/metafields.json", &body); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(body.Metafields))
	for _, field := range body.Metafields {
		key := field.Key
		if field.Namespace != "" {
			key = field.Namespace + "/" + field.Key
		}
		out[key] = field.Value
	}
	return out, nil
}

func (c *Client) FetchTags(ctx context.Context, productID string) ([]string, error) {
	var body struct {
		Product struct {
			Tags string `json:"tags"`
		} `json:"product"`
	}
	if err := c.get(ctx, "/products/"+url.PathEscape(productID)+".json", &body); err != nil {
		return nil, err
	}

	parts := strings.Split(body.Product.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build commerce request: %w", err)
	}
	req.Header.Set("X-Shop-Access-Token", c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Warn("commerce api unreachable",
			"event", "shopapi_request_failed",
			"module", "booking-bridge/booking-service",
			"layer", "adapter",
			"path", path,
			"error", err.Error(),
		)
		return domainerrors.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domainerrors.ErrOrderNotFound
	case resp.StatusCode >= 500:
		return domainerrors.ErrUpstreamUnavailable
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("commerce api status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode commerce response: %w", err)
	}
	return nil
}

func (w orderWire) toEntity() entities.RawOrder {
	order := entities.RawOrder{
		ID:                w.ID.String(),
		Name:              w.Name,
		FinancialStatus:   w.FinancialStatus,
		FulfillmentStatus: w.FulfillmentStatus,
	}
	if parsed, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
		order.CreatedAt = parsed
	}
	if w.Customer != nil {
		order.Customer = &entities.Customer{
			FirstName: w.Customer.FirstName,
			LastName:  w.Customer.LastName,
			Email:     w.Customer.Email,
			Phone:     w.Customer.Phone,
		}
	}
	order.LineItems = make([]entities.LineItem, 0, len(w.LineItems))
	for _, item := range w.LineItems {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			price = decimal.Zero
		}
		lineItem := entities.LineItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     price,
			Vendor:    item.Vendor,
			ProductID: item.ProductID.String(),
		}
		for _, prop := range item.Properties {
			lineItem.Properties = append(lineItem.Properties, entities.Property{
				Name:  prop.Name,
				Value: prop.Value,
			})
		}
		order.LineItems = append(order.LineItems, lineItem)
	}
	for _, attr := range w.NoteAttributes {
		order.NoteAttributes = append(order.NoteAttributes, entities.Property{
			Name:  attr.Name,
			Value: attr.Value,
		})
	}
	return order
}
