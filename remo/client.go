package remo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.nature.global"

// ErrEmptyBody is returned when the cloud answers with no usable body.
var ErrEmptyBody = errors.New("remo: empty response body")

// APIError is a semantic rejection embedded in a well-formed response,
// e.g. a temperature outside the vocabulary of the current mode.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remo api rejection %d: %s", e.Code, e.Message)
}

// Client talks to the Nature Remo cloud API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// ListAppliances fetches every appliance registered to the account, in
// the order the cloud reports them.
func (c *Client) ListAppliances(ctx context.Context) ([]Appliance, error) {
	var apps []Appliance
	if err := c.getJSON(ctx, "/1/appliances", &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListDevices fetches every Remo unit and its newest sensor readings.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var devs []Device
	if err := c.getJSON(ctx, "/1/devices", &devs); err != nil {
		return nil, err
	}
	return devs, nil
}

// UpdateAirconSettings submits one settings write carrying the full
// merged parameter set and returns the settings the cloud applied. It
// never touches any local state; callers own the cache.
func (c *Client) UpdateAirconSettings(ctx context.Context, applianceID string, params map[string]string) (*AirConParams, error) {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	path := fmt.Sprintf("/1/appliances/%s/aircon_settings", applianceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var updated AirConParams
	if err := c.do(req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remo: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remo: reading response: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmptyBody
	}

	// the cloud signals semantic rejection with an error code in the
	// body rather than an HTTP status
	var rejection APIError
	if json.Unmarshal(trimmed, &rejection) == nil && rejection.Code != 0 {
		return &rejection
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("remo api error %d: %s", resp.StatusCode, strings.TrimSpace(string(trimmed)))
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("remo: parsing response: %w", err)
	}
	return nil
}
