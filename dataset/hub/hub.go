// Package hub reads dataset rows from the Hugging Face datasets-server.
//
// Rows are fetched page by page through the /rows endpoint. In streaming mode
// a page is requested only when the consumer has used up the previous one.
package hub

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/oieieio/think-tools/config"
	"github.com/oieieio/think-tools/dataset"
	"github.com/oieieio/think-tools/errors"
)

// Source configuration constants.
const (
	// DefaultEndpoint is the public datasets-server.
	DefaultEndpoint = "https://datasets-server.huggingface.co"

	// MaxPageLength is the largest page the /rows endpoint serves.
	MaxPageLength = 100

	envEndpoint = "HF_DATASETS_SERVER_URL"
	envToken    = "HF_TOKEN"
	envTokenAlt = "HUGGING_FACE_HUB_TOKEN"
	maxBodySize = 64 << 20
	rowsPath    = "/rows"
	sourceName  = "hub"
)

// Client talks to a datasets-server instance.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Query selects the rows of one dataset split.
type Query struct {
	// Dataset is the repository id, e.g. "oieieio/OpenR1-Math-220k".
	Dataset string

	// Config is the dataset configuration (subset) name.
	Config string

	// Split is the split name, e.g. "train".
	Split string

	// Offset is the index of the first row to return.
	Offset int

	// PageSize is the number of rows per request. Values outside
	// 1..MaxPageLength fall back to MaxPageLength.
	PageSize int

	// Streaming fetches pages on demand. When false, every row up to MaxRows
	// is loaded before the first one is yielded.
	Streaming bool

	// MaxRows caps the eager load of a non-streaming query. Zero loads the whole split.
	MaxRows int
}

// New creates a datasets-server client.
// The token is optional and read from HF_TOKEN, then HUGGING_FACE_HUB_TOKEN.
func New(opts ...config.Option) (*Client, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	endpoint, err := cfg.ResolveBaseURL(envEndpoint, DefaultEndpoint)
	if err != nil {
		return nil, err
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      cfg.ResolveAPIKey(envToken, envTokenAlt),
		httpClient: cfg.HTTPClient(),
		logger:     cfg.Logger(),
	}, nil
}

// Source returns a dataset.Source over the rows selected by q.
func (c *Client) Source(q Query) *Source {
	if q.PageSize <= 0 || q.PageSize > MaxPageLength {
		q.PageSize = MaxPageLength
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	return &Source{client: c, query: q}
}

// Source yields the rows of a Query.
type Source struct {
	client *Client
	query  Query
}

// Ensure Source implements dataset.Source.
var _ dataset.Source = (*Source)(nil)

// Records implements dataset.Source.
func (s *Source) Records(ctx context.Context) iter.Seq2[*dataset.Record, error] {
	if s.query.Streaming {
		return s.stream(ctx)
	}
	return s.eager(ctx)
}

func (s *Source) stream(ctx context.Context) iter.Seq2[*dataset.Record, error] {
	return func(yield func(*dataset.Record, error) bool) {
		offset := s.query.Offset
		for {
			p, err := s.client.fetchPage(ctx, s.query, offset, s.query.PageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, r := range p.records {
				if !yield(r, nil) {
					return
				}
			}

			offset += len(p.records)
			if p.last(offset, s.query.PageSize) {
				return
			}
		}
	}
}

func (s *Source) eager(ctx context.Context) iter.Seq2[*dataset.Record, error] {
	return func(yield func(*dataset.Record, error) bool) {
		var all []*dataset.Record
		offset := s.query.Offset

		for {
			length := s.query.PageSize
			if s.query.MaxRows > 0 {
				length = min(length, s.query.MaxRows-len(all))
			}

			p, err := s.client.fetchPage(ctx, s.query, offset, length)
			if err != nil {
				yield(nil, err)
				return
			}

			all = append(all, p.records...)
			offset += len(p.records)

			if p.last(offset, length) || (s.query.MaxRows > 0 && len(all) >= s.query.MaxRows) {
				break
			}
		}

		s.client.logger.Debug("hub_loaded",
			"dataset", s.query.Dataset,
			"rows", len(all),
		)

		for _, r := range all {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// page is one decoded /rows response.
type page struct {
	records []*dataset.Record
	total   int64
}

// last reports whether no further page can follow.
func (p page) last(offset, requested int) bool {
	if len(p.records) == 0 || len(p.records) < requested {
		return true
	}
	return p.total > 0 && int64(offset) >= p.total
}

func (c *Client) rowsURL(q Query, offset, length int) string {
	v := url.Values{}
	v.Set("dataset", q.Dataset)
	v.Set("config", q.Config)
	v.Set("split", q.Split)
	v.Set("offset", strconv.Itoa(offset))
	v.Set("length", strconv.Itoa(length))
	return c.endpoint + rowsPath + "?" + v.Encode()
}

func (c *Client) fetchPage(ctx context.Context, q Query, offset, length int) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rowsURL(q, offset, length), nil)
	if err != nil {
		return page{}, errors.NewSourceError(sourceName, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, errors.NewSourceError(sourceName, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return page{}, errors.NewSourceError(sourceName, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return page{}, convertStatus(q, resp.StatusCode, body)
	}

	p, err := decodePage(body)
	if err != nil {
		return page{}, errors.NewSourceError(sourceName, resp.StatusCode, err)
	}

	c.logger.Debug("hub_page",
		"dataset", q.Dataset,
		"offset", offset,
		"length", length,
		"rows", len(p.records),
		"total", p.total,
	)

	return p, nil
}

// convertStatus maps a non-200 response into the error taxonomy.
func convertStatus(q Query, status int, body []byte) error {
	msg := strings.TrimSpace(gjson.GetBytes(body, "error").String())
	if msg == "" {
		msg = http.StatusText(status)
	}
	err := fmt.Errorf("%s (config=%q split=%q): %s", q.Dataset, q.Config, q.Split, msg)

	switch status {
	case http.StatusNotFound:
		return errors.NewDatasetNotFoundError(sourceName, q.Dataset, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewAuthenticationError(sourceName, err)
	case http.StatusTooManyRequests:
		return errors.NewRateLimitError(sourceName, err)
	default:
		return errors.NewSourceError(sourceName, status, err)
	}
}

func decodePage(body []byte) (page, error) {
	if !gjson.ValidBytes(body) {
		return page{}, fmt.Errorf("malformed rows response")
	}

	res := gjson.ParseBytes(body)
	rows := res.Get("rows")
	if !rows.IsArray() {
		return page{}, fmt.Errorf("rows response has no rows array")
	}

	p := page{total: res.Get("num_rows_total").Int()}

	var decodeErr error
	rows.ForEach(func(_, row gjson.Result) bool {
		r, err := dataset.ParseRecord([]byte(row.Get("row").Raw))
		if err != nil {
			decodeErr = fmt.Errorf("row %d: %w", row.Get("row_idx").Int(), err)
			return false
		}
		p.records = append(p.records, r)
		return true
	})
	if decodeErr != nil {
		return page{}, decodeErr
	}

	return p, nil
}
