package lineup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

var ErrBadDuration = errors.New("duration must be MM:SS or H:MM:SS")

// maxLeadingField caps the first field so the total always fits a
// time.Duration.
const maxLeadingField = 99999

// ParseDuration reads "MM:SS" or "H:MM:SS". Every field after the first must
// be below 60.
func ParseDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrBadDuration
	}
	var total int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, ErrBadDuration
		}
		if i == 0 && n > maxLeadingField || i > 0 && n >= 60 {
			return 0, ErrBadDuration
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}

// FormatDuration renders H:MM:SS when there is at least one hour and MM:SS
// otherwise.
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// SetlistDuration sums the durations of songs. Missing or unparsable values
// count as zero.
func SetlistDuration(songs []model.Song) time.Duration {
	var total time.Duration
	for _, s := range songs {
		if s.Duration == nil {
			continue
		}
		if d, err := ParseDuration(*s.Duration); err == nil {
			total += d
		}
	}
	return total
}
