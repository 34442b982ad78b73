// Package backend is the typed client for the canteen backend's /v1 API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "menza-admin/internal/common/errors"
	transport "menza-admin/internal/common/http"
	"menza-admin/internal/common/logger"
	"menza-admin/internal/models"
)

const (
	DefaultClientType = "desktop"
	DefaultTimeout    = 30 * time.Second
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	ClientType string
	Logger     logger.Logger
	HTTPClient *http.Client
}

// Client talks to one backend. It holds no per-request state and is safe for
// concurrent use. Nothing is retried.
type Client struct {
	http   *transport.Client
	logger logger.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ClientType == "" {
		opts.ClientType = DefaultClientType
	}
	log := logger.OrNoOp(opts.Logger)

	hc, err := transport.NewClient(transport.Options{
		BaseURL: opts.BaseURL,
		Timeout: opts.Timeout,
		Headers: map[string]string{
			transport.HeaderClientType: opts.ClientType,
			"Accept":                   "application/json",
		},
		HTTPClient: opts.HTTPClient,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return &Client{http: hc, logger: log}, nil
}

// Close releases pooled connections. The client must not be used afterwards.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// ==========================
// Generic
// ==========================

// RawGet returns the response body of GET path as text. path may carry its
// own query string.
func (c *Client) RawGet(ctx context.Context, path string) (string, error) {
	resp, err := c.send(ctx, transport.Request{
		Operation: "raw_get",
		Method:    http.MethodGet,
		Path:      path,
	})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// ==========================
// Foods
// ==========================

func (c *Client) GetFoodByID(ctx context.Context, id string) (*models.FoodItem, error) {
	const op = "get_food"
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("food id is required")
	}

	resp, err := c.send(ctx, transport.Request{
		Operation: op,
		Method:    http.MethodGet,
		Path:      "/v1/food/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var food models.FoodItem
	if err := decode(op, resp.Body, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

// GetAllFoods returns the catalog in server order.
func (c *Client) GetAllFoods(ctx context.Context) ([]models.FoodItem, error) {
	const op = "list_foods"
	resp, err := c.send(ctx, transport.Request{
		Operation: op,
		Method:    http.MethodGet,
		Path:      "/v1/food",
	})
	if err != nil {
		return nil, err
	}

	var foods []models.FoodItem
	if err := decode(op, resp.Body, &foods); err != nil {
		return nil, err
	}
	if foods == nil {
		foods = []models.FoodItem{}
	}
	return foods, nil
}

// CreateFood uploads a food as multipart form data. A "file" part is always
// sent; the placeholder image stands in when req.Image is empty.
func (c *Client) CreateFood(ctx context.Context, req models.CreateFoodRequest) (*models.FoodItem, error) {
	const op = "create_food"
	body, contentType, err := encodeFoodForm(req)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	resp, err := c.send(ctx, transport.Request{
		Operation:   op,
		Method:      http.MethodPost,
		Path:        "/v1/food",
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	var food models.FoodItem
	if err := decode(op, resp.Body, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

func (c *Client) DeleteFood(ctx context.Context, id int64) error {
	_, err := c.send(ctx, transport.Request{
		Operation: "delete_food",
		Method:    http.MethodDelete,
		Path:      "/v1/food/" + strconv.FormatInt(id, 10),
	})
	return err
}

// ==========================
// Orders
// ==========================

// GetOrdersByWeek lists per-food order summaries for an ISO week. day, when
// set, restricts the result to one ISO weekday (1-7).
func (c *Client) GetOrdersByWeek(ctx context.Context, year, week int, day *int) ([]models.OrderSummary, error) {
	return c.GetOrders(ctx, models.OrdersByWeekRequest{Year: year, Week: week, Day: day})
}

// GetOrders is GetOrdersByWeek with the parameters in one value.
func (c *Client) GetOrders(ctx context.Context, req models.OrdersByWeekRequest) ([]models.OrderSummary, error) {
	const op = "list_orders"
	if req.Day != nil && (*req.Day < 1 || *req.Day > 7) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("day must be between 1 and 7, got %d", *req.Day))
	}

	query := url.Values{}
	query.Set("year", strconv.Itoa(req.Year))
	query.Set("week", strconv.Itoa(req.Week))
	if req.Day != nil {
		query.Set("day", strconv.Itoa(*req.Day))
	}

	resp, err := c.send(ctx, transport.Request{
		Operation: op,
		Method:    http.MethodGet,
		Path:      "/v1/order",
		Query:     query,
	})
	if err != nil {
		return nil, err
	}

	var orders []models.OrderSummary
	if err := decode(op, resp.Body, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	return orders, nil
}

// ==========================
// Menus
// ==========================

// GetMenu returns the menu days of a week. A week without a menu (404) is an
// empty slice, not an error. A nil year lets the server pick the current one.
func (c *Client) GetMenu(ctx context.Context, week int, year *int) ([]models.MenuDay, error) {
	const op = "get_menu"
	query := url.Values{}
	query.Set("week", strconv.Itoa(week))
	if year != nil {
		query.Set("year", strconv.Itoa(*year))
	}

	resp, err := c.send(ctx, transport.Request{
		Operation: op,
		Method:    http.MethodGet,
		Path:      "/v1/menu",
		Query:     query,
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return []models.MenuDay{}, nil
		}
		return nil, err
	}

	var days []models.MenuDay
	if err := decode(op, resp.Body, &days); err != nil {
		return nil, err
	}
	if days == nil {
		days = []models.MenuDay{}
	}
	return days, nil
}

// CreateMenu posts a new weekly menu. A 409 means the week already has one and
// comes back as a conflict error.
func (c *Client) CreateMenu(ctx context.Context, req models.CreateMenuRequest) (*models.MenuAck, error) {
	return c.writeMenu(ctx, "create_menu", http.MethodPost, req)
}

// UpdateMenu patches the days present in req.
func (c *Client) UpdateMenu(ctx context.Context, req models.CreateMenuRequest) (*models.MenuAck, error) {
	return c.writeMenu(ctx, "update_menu", http.MethodPatch, req)
}

func (c *Client) writeMenu(ctx context.Context, op, method string, req models.CreateMenuRequest) (*models.MenuAck, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to encode menu: %w", err))
	}

	resp, err := c.send(ctx, transport.Request{
		Operation:   op,
		Method:      method,
		Path:        "/v1/menu",
		Body:        bytes.NewReader(payload),
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	ack := &models.MenuAck{}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return ack, nil
	}
	if err := decode(op, resp.Body, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// ==========================
// Helpers
// ==========================

func (c *Client) send(ctx context.Context, req transport.Request) (*transport.Response, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		statusErr := apperrors.NewHTTPStatusError(req.Operation, resp.StatusCode, string(resp.Body)).
			WithMetadata("requestId", resp.RequestID)
		c.logger.Warn("backend returned non-success status", map[string]interface{}{
			"operation":     req.Operation,
			"status":        resp.StatusCode,
			"requestId":     resp.RequestID,
			"errorCategory": apperrors.Category(statusErr),
		})
		return nil, statusErr
	}
	return resp, nil
}

func decode(op string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewDecodeError(op, err)
	}
	return nil
}
