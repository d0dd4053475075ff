package rates

import (
	"go.uber.org/zap"
)

// FallbackSource tries a primary source and falls back to a secondary one when
// the primary fails. A primary failure is logged, never surfaced.
type FallbackSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewFallbackSource constructs a FallbackSource.
func NewFallbackSource(primary, fallback Source, logger *zap.Logger) *FallbackSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackSource{primary: primary, fallback: fallback, logger: logger}
}

// Changes returns the primary source's changes, or the fallback's when the
// primary fails.
func (s *FallbackSource) Changes() ([]Change, error) {
	changes, err := s.primary.Changes()
	if err != nil {
		s.logger.Warn("primary rate source failed, falling back to snapshot",
			zap.String("op", "rates.FallbackSource.Changes"),
			zap.Error(err),
		)
		return s.fallback.Changes()
	}
	return changes, nil
}

// NewDefaultSource wires the standard stack: remote feed with the bundled
// snapshot as fallback, memoized behind a Cache.
func NewDefaultSource(feedURL string, logger *zap.Logger) *Cache {
	return NewCache(NewFallbackSource(NewHTTPSource(feedURL, logger), NewStaticSource(), logger), logger)
}
