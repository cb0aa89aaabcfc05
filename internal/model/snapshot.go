package model

import (
	"strings"
	"time"
)

// Snapshot is one captured batch of on-screen text from a single app at a
// point in time. Lines preserve top-to-bottom screen order.
type Snapshot struct {
	CapturedAt time.Time
	AppID      string
	Lines      []string
}

// JoinedText returns the snapshot lines joined for substring and pattern
// matching. The result is recomputed on each call; callers on the hot path
// should join once and reuse.
func (s *Snapshot) JoinedText() string {
	return strings.Join(s.Lines, "\n")
}
