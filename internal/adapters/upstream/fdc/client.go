// Package fdc provides a resilient client for the FoodData Central search API
package fdc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"platewise/internal/core/nutrition"
	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api.nal.usda.gov/fdc/v1"
	defaultTimeout   = 15 * time.Second
	defaultUA        = "platewise-api"
	defaultMaxRetry  = 1
	defaultRetryBase = 500 * time.Millisecond
	defaultPageSize  = 10
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transient server errors. One retry is the default:
	// the resolution cascade has its own fallback stages, so the client
	// should fail fast rather than burn the request deadline
	MaxRetries int
	RetryBase  time.Duration
}

// Client is a minimal FoodData Central search client
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("fdc"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Configured reports whether a database key is present. The cascade skips
// authoritative stages entirely when it is not
func (c *Client) Configured() bool { return c.opts.APIKey != "" }

// searchResponse mirrors the slice of the FDC payload we consume
type searchResponse struct {
	TotalHits int `json:"totalHits"`
	Foods     []struct {
		FdcID         int64  `json:"fdcId"`
		Description   string `json:"description"`
		DataType      string `json:"dataType"`
		BrandOwner    string `json:"brandOwner"`
		FoodNutrients []struct {
			NutrientID     int64   `json:"nutrientId"`
			NutrientName   string  `json:"nutrientName"`
			NutrientNumber string  `json:"nutrientNumber"`
			Value          float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Search queries the database by food name and returns raw candidates in
// response order with per-100g nutrient lists attached. limit caps the page
// size; zero means the default
func (c *Client) Search(ctx context.Context, query string, limit int) ([]nutrition.Candidate, error) {
	if !c.Configured() {
		return nil, perr.Configf("nutrient database key not configured")
	}
	if query == "" {
		return nil, perr.Inputf("search query required")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	q := url.Values{}
	q.Set("api_key", c.opts.APIKey)
	q.Set("query", query)
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("dataType", "Foundation,SR Legacy,Survey (FNDDS),Branded")

	body, err := c.get(ctx, "/foods/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeParse, "fdc search response decode failed")
	}

	cands := make([]nutrition.Candidate, 0, len(sr.Foods))
	for _, f := range sr.Foods {
		cand := nutrition.Candidate{
			ID:          strconv.FormatInt(f.FdcID, 10),
			Description: f.Description,
			DataType:    f.DataType,
			BrandOwner:  f.BrandOwner,
		}
		for _, n := range f.FoodNutrients {
			cand.Nutrients = append(cand.Nutrients, nutrition.RawNutrient{
				ID:    nutrientID(n.NutrientID, n.NutrientNumber),
				Name:  n.NutrientName,
				Value: n.Value,
			})
		}
		cands = append(cands, cand)
	}
	return cands, nil
}

func nutrientID(id int64, number string) string {
	if number != "" {
		return number
	}
	if id > 0 {
		return strconv.FormatInt(id, 10)
	}
	return ""
}

// get issues the request with a transient-error retry and maps failure
// statuses onto the error taxonomy
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := c.opts.BaseURL + path
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, deadlineErr(ctx.Err())
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "fdc new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
				return nil, deadlineErr(err)
			}
			if attempts >= c.opts.MaxRetries {
				return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "fdc transport failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("fdc transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		c.log.Debug().
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("fdc http response")

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "fdc body read failed")
			}
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			_ = drain(resp.Body)
			return nil, perr.UpstreamAuthf("fdc rejected credentials (%d)", resp.StatusCode)
		case resp.StatusCode == http.StatusTooManyRequests:
			_ = drain(resp.Body)
			return nil, perr.RateLimitedf("fdc rate limited")
		case resp.StatusCode >= 500:
			_ = drain(resp.Body)
			if attempts >= c.opts.MaxRetries {
				return nil, perr.Upstreamf("fdc server error %d", resp.StatusCode)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Int("status", resp.StatusCode).
				Msg("fdc transient error retrying")
			c.sleep(back)
			attempts++
			continue
		default:
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Upstreamf("fdc unexpected status %d body %s", resp.StatusCode, string(tail))
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	ms := int64(c.opts.RetryBase / time.Millisecond)
	ms = ms << uint(attempt)
	if cap := int64(10 * time.Second / time.Millisecond); ms > cap {
		ms = cap
	}
	return time.Duration(ms) * time.Millisecond
}

func deadlineErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return perr.Wrapf(err, perr.ErrorCodeTimeout, "fdc request deadline exceeded")
}

func drain(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<20))
	return rc.Close()
}
