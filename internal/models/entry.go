package models

import (
	"strings"
	"time"
)

// MediaKind is the kind a user picks when logging an entry
type MediaKind string

const (
	KindMovie       MediaKind = "Movie"
	KindShow        MediaKind = "Show"
	KindDocumentary MediaKind = "Documentary"
	KindAnime       MediaKind = "Anime"
	KindOther       MediaKind = "Other"
)

// MediaKinds lists the kinds in the order the add form offers them
var MediaKinds = []MediaKind{KindMovie, KindShow, KindDocumentary, KindAnime, KindOther}

// ParseMediaKind matches s case-insensitively against the known kinds
func ParseMediaKind(s string) (MediaKind, bool) {
	for _, k := range MediaKinds {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// IsMovieLike reports whether the kind is searched as a movie
func (k MediaKind) IsMovieLike() bool {
	return k == KindMovie || k == KindDocumentary
}

// IsShowLike reports whether the kind is searched as a series
func (k MediaKind) IsShowLike() bool {
	return k == KindShow || k == KindAnime
}

// WatchStatus tracks where the user is with a title
type WatchStatus string

const (
	StatusWatched  WatchStatus = "Watched"
	StatusWatching WatchStatus = "Watching"
	StatusPlanned  WatchStatus = "Plan to Watch"
	StatusDropped  WatchStatus = "Dropped"
)

// WatchStatuses lists the statuses in form order
var WatchStatuses = []WatchStatus{StatusWatched, StatusWatching, StatusPlanned, StatusDropped}

// ParseWatchStatus matches s case-insensitively; empty means Watched
func ParseWatchStatus(s string) (WatchStatus, bool) {
	if s == "" {
		return StatusWatched, true
	}
	for _, st := range WatchStatuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// Entry is one row of the append-only media log.
// Column order is user, title, kind, status, year, language, note, timestamp.
type Entry struct {
	ID        string      `json:"id"`
	User      string      `json:"user"`
	Title     string      `json:"title"`
	Kind      MediaKind   `json:"kind"`
	Status    WatchStatus `json:"status"`
	Year      string      `json:"year,omitempty"`
	Language  string      `json:"language,omitempty"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"timestamp"`
}
