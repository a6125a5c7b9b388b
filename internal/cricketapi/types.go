package cricketapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// looseString accepts a JSON string or number.
type looseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// apiMatch is one element of the matches array. Field names vary between
// deployments of the API, hence the alternates.
type apiMatch struct {
	ID           looseString     `json:"id"`
	MatchID      looseString     `json:"matchId"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Team1        string          `json:"team1"`
	Team2        string          `json:"team2"`
	Teams        []string        `json:"teams"`
	Format       string          `json:"format"`
	MatchType    string          `json:"matchType"`
	Status       string          `json:"status"`
	State        string          `json:"state"`
	Venue        string          `json:"venue"`
	Location     string          `json:"location"`
	Date         string          `json:"date"`
	DateTimeGMT  string          `json:"dateTimeGMT"`
	StartTime    looseString     `json:"startTime"`
	Score        []cricket.Score `json:"score"`
	MatchStarted *bool           `json:"matchStarted"`
	MatchEnded   *bool           `json:"matchEnded"`
}

// envelope covers APIs that wrap the array in an object.
type envelope struct {
	Data    []apiMatch `json:"data"`
	Matches []apiMatch `json:"matches"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// normalizeStart turns unix-millisecond strings into RFC 3339; anything else
// is returned unchanged.
func normalizeStart(s string) string {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 1e11 {
		return msToRFC3339(ms)
	}
	return s
}
