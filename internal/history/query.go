package history

import (
	"fmt"
	"slices"
	"strings"

	"github.com/voiceaid/voiceaid/internal/tone"
)

// SortMode orders a history view.
type SortMode int

const (
	// Newest sorts by descending timestamp.
	Newest SortMode = iota
	// Oldest sorts by ascending timestamp.
	Oldest
	// FavoritesFirst puts favorites first, ties by descending timestamp.
	FavoritesFirst
)

// SortModes lists the modes in selector order.
var SortModes = []SortMode{Newest, Oldest, FavoritesFirst}

// String returns the string representation of the sort mode.
func (m SortMode) String() string {
	switch m {
	case Newest:
		return "newest"
	case Oldest:
		return "oldest"
	case FavoritesFirst:
		return "favorites"
	default:
		return "unknown"
	}
}

// Next cycles to the following mode.
func (m SortMode) Next() SortMode {
	return SortModes[(int(m)+1)%len(SortModes)]
}

// ParseSort parses a sort mode name as produced by String.
func ParseSort(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest":
		return Newest, nil
	case "oldest":
		return Oldest, nil
	case "favorites", "favorites-first", "favoritesfirst":
		return FavoritesFirst, nil
	default:
		return Newest, fmt.Errorf("unknown sort mode %q (use newest, oldest or favorites)", s)
	}
}

// Filter selects and orders a view.
type Filter struct {
	Keyword string   // case-insensitive substring of Message, spaces included; blank matches all
	Tone    string   // exact tone; "" or tone.All matches all
	Sort    SortMode // ordering of the result
}

// Query returns the records matching f, ordered by f.Sort. The input is
// never modified; the result is a new slice.
func Query(records []Record, f Filter) []Record {
	// Surrounding spaces are part of the substring; only a blank keyword
	// matches everything.
	keyword := strings.ToLower(f.Keyword)
	matchKeyword := strings.TrimSpace(keyword) != ""
	matchTone := f.Tone != "" && f.Tone != tone.All

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matchKeyword && !strings.Contains(strings.ToLower(r.Message), keyword) {
			continue
		}
		if matchTone && r.Tone != f.Tone {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		switch f.Sort {
		case Oldest:
			return compareTime(a, b)
		case FavoritesFirst:
			if a.Favorite != b.Favorite {
				if a.Favorite {
					return -1
				}
				return 1
			}
			return compareTime(b, a)
		default:
			return compareTime(b, a)
		}
	})
	return out
}

func compareTime(a, b Record) int {
	if c := a.Time().Compare(b.Time()); c != 0 {
		return c
	}
	return strings.Compare(a.Timestamp, b.Timestamp)
}
