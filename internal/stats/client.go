// Package stats is the HTTP client for the analytics collaborator. The core
// only ever pushes hits; view-count computation stays on the stats side.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eventboard/internal/domain"
)

const hitTimeout = 5 * time.Second

type httpSink struct {
	client  *http.Client
	baseURL string
	app     string
	logger  *slog.Logger
}

// NewHTTPSink returns a TelemetrySink posting hits to the stats service at
// baseURL. app identifies this service in recorded hits. client may be nil.
func NewHTTPSink(client *http.Client, baseURL, app string, logger *slog.Logger) domain.TelemetrySink {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSink{
		client:  client,
		baseURL: baseURL,
		app:     app,
		logger:  logger,
	}
}

// RecordHit delivers the hit on its own goroutine. Failures are logged and
// never reach the caller.
func (s *httpSink) RecordHit(hit domain.StatsHit) {
	if hit.App == "" {
		hit.App = s.app
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), hitTimeout)
		defer cancel()
		if err := s.post(ctx, hit); err != nil {
			s.logger.Warn("telemetry hit dropped", "uri", hit.URI, "err", err)
		}
	}()
}

func (s *httpSink) post(ctx context.Context, hit domain.StatsHit) error {
	body, err := json.Marshal(hit)
	if err != nil {
		return fmt.Errorf("encode hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post hit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("stats service returned status: %d", resp.StatusCode)
	}
	return nil
}

// NoopSink discards all hits. Used when no stats service is configured.
type NoopSink struct{}

func (NoopSink) RecordHit(domain.StatsHit) {}
