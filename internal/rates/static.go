package rates

import (
	"bytes"
	_ "embed"
)

//go:embed assets/historical_rates.csv
var snapshotCSV []byte

// StaticSource serves the bundled snapshot of historical rate changes. It is
// the fallback when the remote feed is unavailable.
type StaticSource struct{}

// NewStaticSource constructs a StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// Changes parses the embedded snapshot.
func (s *StaticSource) Changes() ([]Change, error) {
	return ParseCSV(bytes.NewReader(snapshotCSV))
}
