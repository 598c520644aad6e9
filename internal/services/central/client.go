package central

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrPositionGone is the decoded meaning of a 404 from the move endpoint:
// the source position no longer holds the lot, so the move already happened
// (an earlier delivery, or another device got there first).
var ErrPositionGone = errors.New("source position already vacated")

// APIError is any other non-2xx answer, carried with the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// TokenSource supplies the bearer token for outgoing calls.
type TokenSource interface {
	Token() (string, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// DeviceID tags every call for the server-side audit trail.
	DeviceID string
}

// Client talks to the central warehouse server. One fixed request timeout,
// no transport-level retries: a failed call surfaces immediately and the
// mutation stays queued for the next pass.
type Client struct {
	http   *resty.Client
	tokens TokenSource
}

func New(cfg Config, tokens TokenSource) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.DeviceID != "" {
		hc.SetHeader("X-Device-Id", cfg.DeviceID)
	}
	return &Client{http: hc, tokens: tokens}
}

// Login trades credentials for a session token. It is the only call that
// goes out unauthenticated.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Username: username, Password: password}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return "", apiError(resp)
	}
	if out.Token == "" {
		return "", errors.New("login: server sent no token")
	}
	return out.Token, nil
}

// OccupiedPositions fetches the flat occupancy list, the authoritative
// "what is where" at the moment of the call.
func (c *Client) OccupiedPositions(ctx context.Context) ([]OccupiedPosition, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	var out []OccupiedPosition
	resp, err := req.SetResult(&out).Get("/locations/positions")
	if err != nil {
		return nil, fmt.Errorf("fetching occupied positions: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

// DeletedLots fetches every lot the server has exported or removed.
func (c *Client) DeletedLots(ctx context.Context) ([]DeletedLot, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	var out []DeletedLot
	resp, err := req.SetQueryParam("all", "1").SetResult(&out).Get("/lots/deleted")
	if err != nil {
		return nil, fmt.Errorf("fetching deleted lots: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

// MoveLot relocates one lot. A 404 maps to ErrPositionGone, which callers
// treat as "already done" rather than a failure.
func (c *Client) MoveLot(ctx context.Context, req MoveRequest) error {
	r, err := c.authed(ctx)
	if err != nil {
		return err
	}
	resp, err := r.SetBody(req).Post("/locations/positions/move")
	if err != nil {
		return fmt.Errorf("moving %s: %w", req.LotCode, err)
	}
	if resp.StatusCode() == 404 {
		return ErrPositionGone
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// SyncScans uploads captured scans in bulk.
func (c *Client) SyncScans(ctx context.Context, items []ScanItem) error {
	if len(items) == 0 {
		return nil
	}
	req, err := c.authed(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetBody(scanSyncRequest{Items: items}).Post("/scan/sync")
	if err != nil {
		return fmt.Errorf("uploading %d scans: %w", len(items), err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// SyncWork uploads moves through the legacy batch endpoint.
func (c *Client) SyncWork(ctx context.Context, moves []WorkMove) error {
	if len(moves) == 0 {
		return nil
	}
	req, err := c.authed(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetBody(workSyncRequest{Moves: moves}).Post("/work/sync")
	if err != nil {
		return fmt.Errorf("uploading %d moves: %w", len(moves), err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// ExportOrders fetches outbound work orders, usually filtered to status=New.
func (c *Client) ExportOrders(ctx context.Context, status string) ([]ExportOrder, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		req.SetQueryParam("status", status)
	}
	var out []ExportOrder
	resp, err := req.SetResult(&out).Get("/export-orders")
	if err != nil {
		return nil, fmt.Errorf("fetching export orders: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

// WarehouseStatus fetches the stock tree of one warehouse.
func (c *Client) WarehouseStatus(ctx context.Context, warehouseID int) (*WarehouseStatus, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	var out WarehouseStatus
	resp, err := req.SetResult(&out).Get(fmt.Sprintf("/warehouse-status/%d", warehouseID))
	if err != nil {
		return nil, fmt.Errorf("fetching warehouse %d status: %w", warehouseID, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	if out.WarehouseID == 0 {
		out.WarehouseID = warehouseID
	}
	return &out, nil
}

// StaticLocations fetches the full list of storage location codes.
func (c *Client) StaticLocations(ctx context.Context) ([]string, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	resp, err := req.SetResult(&out).Get("/locations")
	if err != nil {
		return nil, fmt.Errorf("fetching location list: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

func (c *Client) authed(ctx context.Context) (*resty.Request, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetAuthToken(tok), nil
}

func apiError(resp *resty.Response) error {
	msg := strings.TrimSpace(resp.String())
	if msg == "" {
		msg = resp.Status()
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}
