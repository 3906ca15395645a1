package adapters

import "go.uber.org/zap"

// dedupSet drops records whose composite primary key was already seen
// in this payload. First occurrence wins; later duplicates are logged
// and skipped, never merged or overwritten.
type dedupSet[K comparable] struct {
	seen   map[K]struct{}
	tool   string
	logger *zap.Logger
}

func newDedupSet[K comparable](tool string, logger *zap.Logger) *dedupSet[K] {
	return &dedupSet[K]{seen: make(map[K]struct{}), tool: tool, logger: logger}
}

// claim returns false and logs when key was already seen.
func (d *dedupSet[K]) claim(key K, description string) bool {
	if _, dup := d.seen[key]; dup {
		d.logger.Warn("skipping duplicate record",
			zap.String("tool", d.tool),
			zap.String("record", description))
		return false
	}
	d.seen[key] = struct{}{}
	return true
}
