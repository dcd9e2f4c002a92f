package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"techdebt_export/internal/logging"
	"techdebt_export/internal/models"
	"techdebt_export/internal/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2021-08-16"
	DefaultStatus  = "UnQualified"
	DefaultLogApp  = "https://portal.eodops.com/Dashboard_LogApp/index.php"

	maxErrorBody = 64 << 10
)

type Config struct {
	BaseURL    string
	Token      string
	Version    string
	DatabaseID string
	Status     string
	LogAppURL  string
	Timeout    time.Duration
}

// Client creates one Notion page per debt record.
type Client struct {
	HTTP *http.Client

	endpoint string
	token    string
	version  string
	page     PageOptions
}

func NewClient(cfg Config, cli *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notion token is required")
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" {
		return nil, errors.New("notion database id is required")
	}

	base := firstNonEmpty(cfg.BaseURL, DefaultBaseURL)
	endpoint, err := url.JoinPath(base, "pages")
	if err != nil {
		return nil, fmt.Errorf("bad notion base url %q: %w", base, err)
	}

	logApp := firstNonEmpty(cfg.LogAppURL, DefaultLogApp)
	if u, err := url.Parse(logApp); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bad log applet url %q", logApp)
	}

	if cli == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		cli = &http.Client{Timeout: timeout}
	}

	return &Client{
		HTTP:     cli,
		endpoint: endpoint,
		token:    cfg.Token,
		version:  firstNonEmpty(cfg.Version, DefaultVersion),
		page: PageOptions{
			DatabaseID: cfg.DatabaseID,
			Status:     firstNonEmpty(cfg.Status, DefaultStatus),
			LogAppURL:  logApp,
		},
	}, nil
}

func (c *Client) Render(rec models.DebtRecord) ([]byte, error) {
	return json.Marshal(BuildPage(c.page, rec))
}

type createdPage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Publish(ctx context.Context, rec models.DebtRecord) (models.PageRef, error) {
	ctx, span := otel.Tracer("techdebt-export").Start(ctx, "notion.create_page")
	defer span.End()
	span.SetAttributes(attribute.Int64("logapplet.id", rec.ID))

	body, err := c.Render(rec)
	if err != nil {
		span.SetStatus(codes.Error, "marshal")
		return models.PageRef{}, fmt.Errorf("marshal page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return models.PageRef{}, &ports.HTTPError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.version)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "do request")
		logging.WithTrace(ctx, "[NOTION][ERR] id=%d do request: %v", rec.ID, err)
		return models.PageRef{}, &ports.HTTPError{Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &ports.HTTPError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil {
			herr.Code = ae.Code
			herr.Message = ae.Message
		}
		span.SetStatus(codes.Error, resp.Status)
		logging.WithTrace(ctx, "[NOTION][ERR] id=%d status=%d code=%q message=%q", rec.ID, resp.StatusCode, herr.Code, herr.Message)
		return models.PageRef{}, herr
	}

	var created createdPage
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		// the page exists; only the echo is unreadable
		log.Printf("[NOTION][WARN] id=%d decode response: %v", rec.ID, err)
	}

	logging.WithTrace(ctx, "[NOTION][OK] id=%d page=%s", rec.ID, created.ID)
	return models.PageRef{ID: created.ID, URL: created.URL}, nil
}

func firstNonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
