// Package api implements domain.SeasonStore against the cropseason HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	httpadapter "github.com/neomorfeo/cropseason/internal/adapter/http"
	"github.com/neomorfeo/cropseason/internal/domain"
)

const seasonsPath = "/api/v1/seasons"

// Compile-time check: Client implements domain.SeasonStore.
var _ domain.SeasonStore = (*Client)(nil)

// Client is a remote season store. Every failure is a *domain.RemoteError;
// a 404 also matches domain.ErrSeasonNotFound.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) FetchSeason(ctx context.Context, id int64) (domain.Season, error) {
	return c.season(ctx, http.MethodGet, seasonPath(id), nil)
}

func (c *Client) ListSeasons(ctx context.Context, filter domain.ListFilter) ([]domain.Season, error) {
	q := url.Values{}
	if filter.PlotID != nil {
		q.Set("plotId", strconv.FormatInt(*filter.PlotID, 10))
	}
	if filter.Status != nil {
		q.Set("status", string(*filter.Status))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := seasonsPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp []httpadapter.SeasonResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	seasons := make([]domain.Season, len(resp))
	for i, r := range resp {
		s, err := r.Season()
		if err != nil {
			return nil, &domain.RemoteError{Op: "GET " + path, Err: err}
		}
		seasons[i] = s
	}
	return seasons, nil
}

func (c *Client) CreateSeason(ctx context.Context, form domain.SeasonForm) (domain.Season, error) {
	return c.season(ctx, http.MethodPost, seasonsPath, form)
}

func (c *Client) UpdateSeason(ctx context.Context, id int64, patch domain.SeasonPatch) (domain.Season, error) {
	return c.season(ctx, http.MethodPatch, seasonPath(id), patch)
}

func (c *Client) SetStatus(ctx context.Context, id int64, target domain.Status, data domain.ActionData) (domain.Season, error) {
	return c.season(ctx, http.MethodPut, seasonPath(id)+"/status", httpadapter.StatusBody{
		Status: string(target),
		Data:   data,
	})
}

func (c *Client) DeleteSeason(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, seasonPath(id), nil, nil)
}

// History returns the recorded status changes of a season, oldest first.
func (c *Client) History(ctx context.Context, id int64) ([]httpadapter.StatusChangeResponse, error) {
	var resp []httpadapter.StatusChangeResponse
	if err := c.do(ctx, http.MethodGet, seasonPath(id)+"/history", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) season(ctx context.Context, method, path string, body any) (domain.Season, error) {
	var resp httpadapter.SeasonResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return domain.Season{}, err
	}
	s, err := resp.Season()
	if err != nil {
		return domain.Season{}, &domain.RemoteError{Op: method + " " + path, Err: err}
	}
	return s, nil
}

// problem is the subset of an RFC 9457 error body the client reports.
type problem struct {
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (p problem) String() string {
	if len(p.Errors) == 0 {
		return p.Detail
	}
	msgs := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		msgs[i] = e.Message
	}
	if p.Detail == "" {
		return strings.Join(msgs, "; ")
	}
	return p.Detail + " [" + strings.Join(msgs, "; ") + "]"
}

// do sends one request. Nothing is retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &domain.RemoteError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var p problem
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err := json.Unmarshal(raw, &p); err != nil {
			p.Detail = strings.TrimSpace(string(raw))
		}
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Detail: p.String()}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func seasonPath(id int64) string {
	return seasonsPath + "/" + strconv.FormatInt(id, 10)
}
