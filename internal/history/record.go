// Package history persists rewrite records and provides filtered,
// sorted views over them.
package history

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout used for new records.
const TimestampLayout = time.RFC3339Nano

// legacyLayouts are accepted when reading timestamps written by older
// versions of the tool, which stored naive local times.
var legacyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// Record is one persisted rewrite.
type Record struct {
	ID        string `json:"id,omitempty"`
	Tone      string `json:"tone"`
	Message   string `json:"message"`
	Favorite  bool   `json:"favorite"`
	Timestamp string `json:"timestamp"`
}

// NewRecord creates a record stamped at now. The timestamp is never
// recomputed afterwards.
func NewRecord(tone, message string, now time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		Tone:      tone,
		Message:   message,
		Timestamp: now.Format(TimestampLayout),
	}
}

// Time parses the record timestamp. The zero time is returned for
// unparsable values, which sort as the oldest.
func (r Record) Time() time.Time {
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, r.Timestamp, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Same reports whether two records denote the same rewrite. IDs are
// compared when both are set; otherwise the immutable fields are.
func (r Record) Same(o Record) bool {
	if r.ID != "" && o.ID != "" {
		return r.ID == o.ID
	}
	return r.Timestamp == o.Timestamp && r.Tone == o.Tone && r.Message == o.Message
}
