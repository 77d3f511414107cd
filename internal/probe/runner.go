// Package probe checks a running scoring-table service against its own
// tables: every tabulated value is looked up and must earn the score a
// linear reference scan of the same rows gives.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoretable/pkg/logger"
)

// Run executes the complete probe.
func Run(ctx context.Context, config *Config) (*Report, error) {
	report := &Report{Stats: Stats{StartTime: time.Now()}}
	if config.Workers < 1 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting scoring-table probe",
		logger.String("baseURL", config.BaseURL),
		logger.String("category", config.Category),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return report, err
	}

	// Step 2: Fetch the events and their rows
	events, err := fetchEvents(ctx, client, config)
	if err != nil {
		return report, err
	}
	if len(events) == 0 {
		return report, fmt.Errorf("%w in %s", ErrNoEvents, config.Category)
	}
	report.Stats.Events = len(events)

	cases, err := buildCases(ctx, client, config, events)
	if err != nil {
		return report, err
	}
	report.Stats.Cases = len(cases)

	// Step 3: Look up every case concurrently
	report.Mismatches = submitCases(ctx, client, config, cases, &report.Stats)

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)
	displayFinalStats(ctx, report)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("probe interrupted: %w", err)
	}
	if len(report.Mismatches) > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrMismatch, len(report.Mismatches), len(cases))
	}
	logger.Get().Info(ctx, "probe completed successfully")
	return report, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// submitCases runs the lookups on a worker pool and returns every mismatch.
func submitCases(ctx context.Context, client *HTTPClient, config *Config, cases []Case, stats *Stats) []Mismatch {
	url := fmt.Sprintf("%s/v1/tables/%s/lookup", config.BaseURL, config.Category)

	var (
		matched, failed int64
		mu              sync.Mutex
		mismatches      []Mismatch
	)

	caseChan := make(chan Case, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range caseChan {
				m, ok := lookupCase(ctx, client, url, c)
				if ok {
					atomic.AddInt64(&matched, 1)
					continue
				}
				if m.Err != "" {
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose {
					logger.Get().Warn(ctx, "lookup mismatch",
						logger.String("event", c.Event),
						logger.String("record", c.Record),
						logger.Int("expected", c.Expected),
						logger.Int("got", m.Got),
						logger.String("error", m.Err))
				}
				mu.Lock()
				mismatches = append(mismatches, m)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(caseChan)
		for _, c := range cases {
			select {
			case <-ctx.Done():
				return
			case caseChan <- c:
			}
		}
	}()

	wg.Wait()

	stats.Matched = int(atomic.LoadInt64(&matched))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.Mismatched = len(mismatches) - stats.Failed
	return mismatches
}

// lookupCase posts one lookup and compares the score with the expectation.
func lookupCase(ctx context.Context, client *HTTPClient, url string, c Case) (Mismatch, bool) {
	m := Mismatch{Case: c}
	resp, err := client.Post(ctx, url, lookupRequest{Event: c.Event, Value: c.Value})
	if err != nil {
		m.Err = err.Error()
		return m, false
	}
	m.Status = resp.StatusCode

	var res lookupResult
	if err := decode(resp, &res); err != nil {
		m.Err = err.Error()
		return m, false
	}
	m.Got = res.Score
	return m, res.Score == c.Expected
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, report *Report) {
	stats := report.Stats
	var matchRate, lookupsPerSecond float64

	if stats.Cases > 0 {
		matchRate = float64(stats.Matched) / float64(stats.Cases) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		lookupsPerSecond = float64(stats.Cases) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("events", stats.Events),
		logger.Int("cases", stats.Cases),
		logger.Int("matched", stats.Matched),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchRate", matchRate),
		logger.Float64("lookupsPerSecond", lookupsPerSecond))

	for i, m := range report.Mismatches {
		if i == maxReportedMismatch {
			logger.Get().Warn(ctx, "further mismatches omitted",
				logger.Int("omitted", len(report.Mismatches)-maxReportedMismatch))
			break
		}
		logger.Get().Warn(ctx, "mismatch",
			logger.String("event", m.Event),
			logger.String("record", m.Record),
			logger.Int("expected", m.Expected),
			logger.Int("got", m.Got),
			logger.Int("status", m.Status),
			logger.String("error", m.Err))
	}
}
