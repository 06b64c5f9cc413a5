package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// StatusError is a non-2xx answer from the admin API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog: unexpected status %d: %s", e.StatusCode, e.Message)
}

type errorResponse struct {
	Message string `json:"message"`
}

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(addr string, opts ...Option) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog: endpoint %q must be absolute", addr)
	}
	c := &Client{
		endpoint:   strings.TrimRight(addr, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	out, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(out, &er)
		c.logger.WarnContext(ctx, "catalog request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", res.StatusCode),
		)
		return nil, &StatusError{StatusCode: res.StatusCode, Message: er.Message}
	}
	return out, nil
}

// List fetches every station, whichever envelope the API wraps them in.
func (c *Client) List(ctx context.Context) ([]Station, error) {
	body, err := c.do(ctx, http.MethodGet, "/stations", nil)
	if err != nil {
		return nil, err
	}
	stations, err := decodeList(body)
	if err != nil {
		return nil, fmt.Errorf("decoding station list: %w", err)
	}
	return stations, nil
}

func (c *Client) Create(ctx context.Context, st Station) (Station, error) {
	if len(st.Ports) == 0 {
		st.Ports = []Port{DefaultPort()}
	}
	if st.Status == "" {
		st.Status = StationActive
	}
	body, err := c.do(ctx, http.MethodPost, "/stations", st)
	if err != nil {
		return Station{}, err
	}
	return decodeOne(body)
}

func (c *Client) Update(ctx context.Context, id ID, st Station) (Station, error) {
	body, err := c.do(ctx, http.MethodPut, "/stations/"+url.PathEscape(string(id)), st)
	if err != nil {
		return Station{}, err
	}
	return decodeOne(body)
}

// Deactivate retires a station. The API has no delete; the station is
// marked inactive instead.
func (c *Client) Deactivate(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodPut, "/stations/"+url.PathEscape(string(id)), map[string]StationStatus{
		"status": StationInactive,
	})
	return err
}
