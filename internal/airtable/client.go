package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	appLog "fairhaven/internal/log"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Record is a single Airtable row: a stable id plus named fields.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

// SortField orders a list query by one field.
type SortField struct {
	Field     string
	Direction string // "asc" or "desc"
}

// ListOptions narrows a table list query. Zero value lists everything.
type ListOptions struct {
	Fields          []string
	FilterByFormula string
	Sort            []SortField
	PageSize        int
	MaxRecords      int
	View            string
}

// APIError is a non-2xx response from the Airtable API. The remote type and
// message are carried so they can be surfaced to staff near-verbatim.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: unexpected status %d", e.StatusCode)
}

// Client is a thin wrapper around the Airtable REST API for one base.
type Client struct {
	baseURL    string
	baseID     string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a client with sane defaults.
func NewClient(baseID, apiKey string, opts ...func(*Client)) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		baseID:  baseID,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient overrides the internal HTTP client.
func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the default API base URL (useful for tests).
func WithBaseURL(u string) func(*Client) {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// listResponse is one page of a list query.
type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// List fetches all records of table matching opts, following the offset
// cursor until the API stops returning one (or MaxRecords is reached).
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	if table == "" {
		return nil, fmt.Errorf("airtable: table name is empty")
	}

	var all []Record
	offset := ""

	for {
		q := url.Values{}
		for _, f := range opts.Fields {
			q.Add("fields[]", f)
		}
		if opts.FilterByFormula != "" {
			q.Set("filterByFormula", opts.FilterByFormula)
		}
		for i, s := range opts.Sort {
			q.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
			dir := s.Direction
			if dir == "" {
				dir = "asc"
			}
			q.Set(fmt.Sprintf("sort[%d][direction]", i), dir)
		}
		if opts.PageSize > 0 {
			q.Set("pageSize", strconv.Itoa(opts.PageSize))
		}
		if opts.MaxRecords > 0 {
			q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		}
		if opts.View != "" {
			q.Set("view", opts.View)
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		u := c.tableURL(table)
		if enc := q.Encode(); enc != "" {
			u += "?" + enc
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Records...)

		if page.Offset == "" {
			break
		}
		if opts.MaxRecords > 0 && len(all) >= opts.MaxRecords {
			break
		}
		offset = page.Offset
	}

	appLog.Debug("airtable list", "table", table, "records", len(all))
	return all, nil
}

// Get fetches a single record by id.
func (c *Client) Get(ctx context.Context, table, id string) (Record, error) {
	var rec Record
	if table == "" || id == "" {
		return rec, fmt.Errorf("airtable: table and id are required")
	}
	err := c.do(ctx, http.MethodGet, c.tableURL(table)+"/"+url.PathEscape(id), nil, &rec)
	return rec, err
}

// Create inserts a new record with the given fields.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (Record, error) {
	var rec Record
	if table == "" {
		return rec, fmt.Errorf("airtable: table name is empty")
	}
	body := map[string]any{"fields": fields}
	err := c.do(ctx, http.MethodPost, c.tableURL(table), body, &rec)
	return rec, err
}

// Update patches a record with a partial field set. Fields not named are
// left untouched.
func (c *Client) Update(ctx context.Context, table, id string, fields map[string]any) (Record, error) {
	var rec Record
	if table == "" || id == "" {
		return rec, fmt.Errorf("airtable: table and id are required")
	}
	body := map[string]any{"fields": fields}
	err := c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(id), body, &rec)
	return rec, err
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
}

// do executes one API request, decoding a success body into out and a failure
// body into an *APIError.
func (c *Client) do(ctx context.Context, method, u string, body any, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("airtable: missing API key")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("airtable: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("airtable: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("airtable: decode response: %w", err)
		}
	}
	return nil
}

// decodeAPIError reads Airtable's error envelope. The "error" value is either
// an object {"type","message"} or a bare string depending on the endpoint.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Error) > 0 {
		var detail struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &detail); err == nil {
			apiErr.Type = detail.Type
			apiErr.Message = detail.Message
		} else {
			var s string
			if err := json.Unmarshal(envelope.Error, &s); err == nil {
				apiErr.Message = s
			}
		}
	}

	return apiErr
}
