package appmeta

import (
	"errors"
	"time"
)

// KeySummary holds the latest generated match-day summary text.
const KeySummary = "ai_summary"

var ErrNotFound = errors.New("appmeta: entry not found")

type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
