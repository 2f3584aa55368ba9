package metering

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	obsmetrics "github.com/billingbridge/usagebridge/internal/observability/metrics"
	"go.uber.org/zap"
)

// Query parameter and header names of the usage-events endpoint.
const (
	paramCustomerID = "customerId"
	paramMeterName  = "meterApiName"
	paramStartTime  = "startTimeInSeconds"
	paramEndTime    = "endTimeInSeconds"

	headerAPIKey = "x-api-key"
)

const defaultTimeout = 30 * time.Second

// Config identifies the upstream endpoint for one call. A client is built
// per call from the tenant's credentials; nothing is shared between calls.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client issues account- or meter-scoped usage queries.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
	metrics    *obsmetrics.Metrics
}

// NewClient builds a usage query client.
func NewClient(cfg Config, log *zap.Logger, metrics *obsmetrics.Metrics) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.Named("metering.client"),
		metrics:    metrics,
	}
}

// FetchAccountUsage returns every usage row for the account in the window.
// Upstream failures degrade to an empty result; the caller cannot tell "no
// usage" from "unreachable" here, only the logs and counters can.
func (c *Client) FetchAccountUsage(ctx context.Context, externalKey string, start, end time.Time) []UsageRow {
	rows, err := c.fetch(ctx, externalKey, "", start, end)
	if err != nil {
		c.fail(ctx, err)
		return []UsageRow{}
	}
	return rows
}

// FetchSubscriptionUsage returns usage rows scoped to a single meter.
func (c *Client) FetchSubscriptionUsage(ctx context.Context, externalKey, meterName string, start, end time.Time) []UsageRow {
	rows, err := c.fetch(ctx, externalKey, meterName, start, end)
	if err != nil {
		c.fail(ctx, err)
		return []UsageRow{}
	}
	return rows
}

func (c *Client) fetch(ctx context.Context, externalKey, meterName string, start, end time.Time) ([]UsageRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set(paramCustomerID, externalKey)
	if meterName != "" {
		values.Set(paramMeterName, meterName)
	}
	values.Set(paramStartTime, strconv.FormatInt(start.Unix(), 10))
	values.Set(paramEndTime, strconv.FormatInt(end.Unix(), 10))
	req.URL.RawQuery = values.Encode()

	req.Header.Set("accept", "application/json")
	req.Header.Set(headerAPIKey, c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usage query returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	payload, err := DecodePayload(body)
	if err != nil {
		c.metrics.RecordMalformedPayload(ctx)
		return nil, err
	}

	rows, dropped := payload.Project(c.log)
	if dropped > 0 {
		c.metrics.RecordDroppedRows(ctx, dropped, "row_parse")
	}
	if payload.NextPageToken != "" {
		// Single-page assumption: the endpoint has never paged in practice.
		c.log.Warn("usage payload carries a next page token, further pages ignored")
	}
	return rows, nil
}

func (c *Client) fail(ctx context.Context, err error) {
	reason := "transport"
	if errors.Is(err, ErrMalformedPayload) {
		reason = "malformed_payload"
	}
	c.metrics.RecordUpstreamFailure(ctx, reason)
	c.log.Error("usage query failed", zap.Error(err))
}
