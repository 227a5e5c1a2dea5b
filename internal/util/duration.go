package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const durationHelp = "\n\nValid formats:\n" +
	"• Minutes: 30, 120\n" +
	"• Go duration: 45m, 2h30m, 1h30m45s"

// ParseDuration parses a run length given either as whole minutes or as a
// Go duration string.
func ParseDuration(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if minutes, err := strconv.Atoi(input); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("duration must not be negative: %s%s", input, durationHelp)
		}
		return time.Duration(minutes) * time.Minute, nil
	}

	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %q%s", input, durationHelp)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s%s", input, durationHelp)
	}
	return d, nil
}

// ParseSeconds parses a settings interval given as whole seconds or as a Go
// duration string.
func ParseSeconds(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if secs, err := strconv.Atoi(input); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q (want seconds or a duration like 10s)", input)
	}
	return d, nil
}
