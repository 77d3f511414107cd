package probe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/okian/scoretable/internal/domain/record"
	"github.com/okian/scoretable/pkg/logger"
)

// fetchEvents lists the events to probe, narrowed to config.Events when set.
func fetchEvents(ctx context.Context, client *HTTPClient, config *Config) ([]eventInfo, error) {
	var resp eventsResponse
	u := fmt.Sprintf("%s/v1/tables/%s/events", config.BaseURL, url.PathEscape(config.Category))
	if err := client.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if len(config.Events) == 0 {
		return resp.Events, nil
	}
	want := make(map[string]bool, len(config.Events))
	for _, id := range config.Events {
		want[id] = true
	}
	var out []eventInfo
	for _, e := range resp.Events {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

// buildCases fetches every row of each event and turns it into a case.
func buildCases(ctx context.Context, client *HTTPClient, config *Config, events []eventInfo) ([]Case, error) {
	var cases []Case
	for _, e := range events {
		var col columnResponse
		u := fmt.Sprintf("%s/v1/tables/%s/events/%s/rows", config.BaseURL,
			url.PathEscape(config.Category), url.PathEscape(e.ID))
		if err := client.getJSON(ctx, u, &col); err != nil {
			return nil, fmt.Errorf("failed to fetch rows of %s: %w", e.ID, err)
		}
		for _, r := range col.Rows {
			if r.Value <= 0 {
				continue
			}
			cases = append(cases, Case{
				Event:    e.ID,
				Record:   r.Record,
				Value:    r.Value,
				Expected: expectedScore(col.Rows, e.HigherIsBetter, r.Value),
			})
		}
		logger.Get().Debug(ctx, "event rows fetched",
			logger.String("event", e.ID),
			logger.String("kind", e.Kind),
			logger.Int("rows", len(col.Rows)))
	}
	return cases, nil
}

// expectedScore is the reference answer: a linear scan for the first row,
// best first, that the query meets in hundredths, else the weakest row.
func expectedScore(rows []row, higherIsBetter bool, q float64) int {
	hq := record.Hundredths(q)
	for _, r := range rows {
		hv := record.Hundredths(r.Value)
		if (higherIsBetter && hv <= hq) || (!higherIsBetter && hv >= hq) {
			return r.Score
		}
	}
	return rows[len(rows)-1].Score
}
