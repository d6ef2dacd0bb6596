package domain

import "strings"

type ListStatus string

const (
	StatusCompleted ListStatus = "COMPLETED"
	StatusCurrent   ListStatus = "CURRENT"
	StatusRepeating ListStatus = "REPEATING"
	StatusPaused    ListStatus = "PAUSED"
	StatusDropped   ListStatus = "DROPPED"
	StatusPlanning  ListStatus = "PLANNING"
)

func ParseListStatus(raw string) (ListStatus, bool) {
	status := ListStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusCompleted, StatusCurrent, StatusRepeating, StatusPaused, StatusDropped, StatusPlanning:
		return status, true
	default:
		return "", false
	}
}

// DisplayBucket maps a status to the report bucket it is listed under.
// Repeating and paused entries are shown alongside current ones.
func (s ListStatus) DisplayBucket() Bucket {
	switch s {
	case StatusCompleted:
		return BucketCompleted
	case StatusCurrent, StatusRepeating, StatusPaused:
		return BucketCurrent
	case StatusDropped:
		return BucketDropped
	default:
		return BucketPlanning
	}
}

// Label is the human form used by single-user score lookups.
func (s ListStatus) Label(mediaType MediaType) string {
	switch s {
	case StatusCurrent:
		if mediaType == MediaTypeManga {
			return "Reading"
		}
		return "Watching"
	case "":
		return "Unknown"
	default:
		return Capitalize(string(s))
	}
}

// ListEntry is a catalog account's tracked relationship to one media.
type ListEntry struct {
	Status   ListStatus
	Score    int
	Progress int
	Notes    string
}

// Scored reports whether the entry carries a score; 0 means unscored.
func (e ListEntry) Scored() bool {
	return e.Score > 0
}

// Capitalize turns catalog enum values such as "NOT_YET_RELEASED" into "Not yet released".
func Capitalize(value string) string {
	if value == "" {
		return value
	}
	lower := strings.ToLower(strings.ReplaceAll(value, "_", " "))
	return strings.ToUpper(lower[:1]) + lower[1:]
}
