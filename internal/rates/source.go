// Package rates provides access to historical cash-rate change records used to
// reconstruct past interest-rate movements.
package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/loan-compare/pkg/datetime"
	"go.uber.org/zap"
)

// Change is one historical cash-rate move: the percentage-point shift that
// took effect on the given date.
type Change struct {
	EffectiveDate time.Time
	Value         float64
}

// Source returns the ordered list of historical rate changes.
type Source interface {
	Changes() ([]Change, error)
}

// DefaultFeedURL is the CSV feed of cash-rate changes queried by HTTPSource.
const DefaultFeedURL = "https://www.rba.gov.au/statistics/tables/csv/cash-rate-changes.csv"

// HTTPSource fetches rate changes from a remote CSV feed.
type HTTPSource struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPSource constructs an HTTPSource against the given feed URL; an empty
// URL selects the default feed.
func NewHTTPSource(url string, logger *zap.Logger) *HTTPSource {
	if url == "" {
		url = DefaultFeedURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Changes fetches and parses the remote feed.
func (s *HTTPSource) Changes() ([]Change, error) {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rate changes: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code fetching rate changes: %d", resp.StatusCode)
	}

	changes, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(fmt.Sprintf("fetched %d rate changes from %s", len(changes), s.url),
		zap.String("op", "rates.HTTPSource.Changes"),
	)
	return changes, nil
}

// ParseCSV reads rate-change records from CSV with an effective_date and
// change_points column. Rows with a zero or unparseable change are skipped;
// same-date changes are summed. The result is sorted by date.
func ParseCSV(r io.Reader) ([]Change, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate changes CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("rate changes CSV is empty")
	}

	byDate := make(map[time.Time]float64)
	for i, record := range records {
		if i == 0 && strings.Contains(record[0], "date") {
			continue
		}
		if len(record) < 2 {
			continue
		}
		date, err := datetime.ParseDate(strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil || value == 0 {
			continue
		}
		byDate[date] += value
	}

	changes := make([]Change, 0, len(byDate))
	for date, value := range byDate {
		changes = append(changes, Change{EffectiveDate: date, Value: value})
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].EffectiveDate.Before(changes[j].EffectiveDate)
	})
	return changes, nil
}
