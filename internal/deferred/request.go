package deferred

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUsage means fewer than the two required positional arguments were given
	ErrUsage = errors.New("usage: deleteafter <target-path> <delay-seconds>")
)

// Request is one parsed invocation
type Request struct {
	Target         string
	Delay          time.Duration
	DelayDefaulted bool // Delay argument was unparsable and the fallback was used
}

// ParseArgs turns positional arguments (program name excluded) into a Request.
// Only the argument count can fail; a bad delay falls back to fallback.
func ParseArgs(args []string, fallback time.Duration) (Request, error) {
	if len(args) < 2 {
		return Request{}, ErrUsage
	}
	delay, ok := ParseDelay(args[1])
	if !ok {
		delay = fallback
	}
	return Request{
		Target:         args[0],
		Delay:          delay,
		DelayDefaulted: !ok,
	}, nil
}

// ParseDelay reads a whole number of seconds. Surrounding whitespace, a
// leading '+' and single underscores between digits ("1_000") are accepted;
// negative, fractional, non-numeric and overflowing values report ok=false.
func ParseDelay(s string) (time.Duration, bool) {
	digits, ok := stripDigitSeparators(strings.TrimSpace(s))
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	if n > math.MaxInt64/int64(time.Second) {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// stripDigitSeparators drops underscores that sit between two digits.
// Any other underscore makes the value invalid.
func stripDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
