package gds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Client is the typed boundary to the upstream reservation API. Pure I/O;
// response classification happens in the callers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	clientID   string
}

type Config struct {
	BaseURL  string
	Token    string
	ClientID string
	Timeout  time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		clientID:   cfg.ClientID,
	}
}

// ClientID returns the agency client identifier sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s returned HTTP %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) ExpressSearch(ctx context.Context, req *ExpressSearchRequest) (*ExpressSearchResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp ExpressSearchResponse
	if err := c.post(ctx, "/flights/ExpressSearch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetExpSearch(ctx context.Context, req *GetExpSearchRequest) (*GetExpSearchResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp GetExpSearchResponse
	if err := c.post(ctx, "/flights/GetExpSearch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SmartPricer(ctx context.Context, req *SmartPricerRequest) (*SmartPricerResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp SmartPricerResponse
	if err := c.post(ctx, "/flights/SmartPricer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSPricer(ctx context.Context, req *GetSPricerRequest) (*GetSPricerResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp GetSPricerResponse
	if err := c.post(ctx, "/flights/GetSPricer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetTravelCheckList(ctx context.Context, req *TravelCheckListRequest) (*TravelCheckListResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp TravelCheckListResponse
	if err := c.post(ctx, "/flights/GetTravelCheckList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSSR(ctx context.Context, req *SSRRequest) (*SSRResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp SSRResponse
	if err := c.post(ctx, "/flights/SSR", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateItinerary(ctx context.Context, req *CreateItineraryRequest) (*CreateItineraryResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp CreateItineraryResponse
	if err := c.post(ctx, "/flights/CreateItinerary", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StartPay(ctx context.Context, req *StartPayRequest) (*StartPayResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp StartPayResponse
	if err := c.post(ctx, "/payment/StartPay", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RetrieveBooking(ctx context.Context, req *RetrieveBookingRequest) (*RetrieveBookingResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp RetrieveBookingResponse
	if err := c.post(ctx, "/flights/RetrieveBooking", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelBooking(ctx context.Context, req *CancelBookingRequest) (*CancelBookingResponse, error) {
	if req.ClientID == "" {
		req.ClientID = c.clientID
	}
	var resp CancelBookingResponse
	if err := c.post(ctx, "/flights/CancelBooking", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsTimeout reports whether the error is a timeout-class transport fault,
// the only class the search poller retries with backoff.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
