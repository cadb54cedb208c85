// Package genai provides the generative estimator client used for query
// rewriting, direct nutrition estimation, vision food identification, and
// composite dish decomposition
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/logger"
)

const (
	baseURLDefault = "https://generativelanguage.googleapis.com/v1beta"
	modelDefault   = "gemini-1.5-flash"
	defaultTimeout = 30 * time.Second
	defaultUA      = "platewise-api"

	// maxIdentifiedItems caps photo fan-out
	maxIdentifiedItems = 25
	// maxIngredients caps composite dish decomposition
	maxIngredients = 8
	// maxRewriteLen rejects rewrites too long to be database search terms
	maxRewriteLen = 100
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	UserAgent string
	Timeout   time.Duration
}

// Client speaks the generateContent protocol
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Model == "" {
		o.Model = modelDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("genai"),
		now:  time.Now,
	}
}

// Configured reports whether an estimator key is present
func (c *Client) Configured() bool { return c.opts.APIKey != "" }

// wire types for generateContent

type genPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *genInlineData `json:"inline_data,omitempty"`
}

type genInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig genConfig    `json:"generationConfig"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate issues one generateContent call and returns the first candidate text
func (c *Client) generate(ctx context.Context, parts []genPart, cfg genConfig) (string, error) {
	if !c.Configured() {
		return "", perr.Configf("generative estimator key not configured")
	}

	payload, err := json.Marshal(genRequest{
		Contents:         []genContent{{Parts: parts}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "genai request encode failed")
	}

	u := c.opts.BaseURL + "/models/" + c.opts.Model + ":generateContent?key=" + c.opts.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "genai new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return "", perr.Wrapf(err, perr.ErrorCodeTimeout, "genai request deadline exceeded")
		}
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "genai transport failed")
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Str("model", c.opts.Model).
		Msg("genai http response")

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", perr.UpstreamAuthf("genai rejected credentials (%d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", perr.RateLimitedf("genai rate limited")
	default:
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", perr.Upstreamf("genai unexpected status %d body %s", resp.StatusCode, string(tail))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "genai body read failed")
	}

	var gr genResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeParse, "genai response decode failed")
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", perr.Parsef("genai response carried no candidates")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}
