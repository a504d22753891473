package gpib

import (
	"fmt"
	"strings"
	"time"
)

// Timeout is an NI-488 style timeout code (TNONE..T1000s)
type Timeout int

// Timeout codes, in the order of the NI-488 table
const (
	TNONE Timeout = iota
	T10us
	T30us
	T100us
	T300us
	T1ms
	T3ms
	T10ms
	T30ms
	T100ms
	T300ms
	T1s
	T3s
	T10s
	T30s
	T100s
	T300s
	T1000s
)

var timeoutTable = [...]struct {
	name     string
	duration time.Duration
}{
	{"TNONE", 0},
	{"T10us", 10 * time.Microsecond},
	{"T30us", 30 * time.Microsecond},
	{"T100us", 100 * time.Microsecond},
	{"T300us", 300 * time.Microsecond},
	{"T1ms", time.Millisecond},
	{"T3ms", 3 * time.Millisecond},
	{"T10ms", 10 * time.Millisecond},
	{"T30ms", 30 * time.Millisecond},
	{"T100ms", 100 * time.Millisecond},
	{"T300ms", 300 * time.Millisecond},
	{"T1s", time.Second},
	{"T3s", 3 * time.Second},
	{"T10s", 10 * time.Second},
	{"T30s", 30 * time.Second},
	{"T100s", 100 * time.Second},
	{"T300s", 300 * time.Second},
	{"T1000s", 1000 * time.Second},
}

// Valid reports whether t is one of the table codes
func (t Timeout) Valid() bool {
	return t >= TNONE && int(t) < len(timeoutTable)
}

// Duration returns the nominal duration; TNONE returns 0 (wait forever)
func (t Timeout) Duration() time.Duration {
	if !t.Valid() {
		return 0
	}
	return timeoutTable[t].duration
}

func (t Timeout) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Timeout(%d)", int(t))
	}
	return timeoutTable[t].name
}

// TimeoutFor returns the smallest table timeout that is at least d
func TimeoutFor(d time.Duration) Timeout {
	if d <= 0 {
		return TNONE
	}
	for i := T10us; i <= T1000s; i++ {
		if timeoutTable[i].duration >= d {
			return i
		}
	}
	return T1000s
}

// ParseTimeout accepts a table name ("T3s", "TNONE") or a Go duration ("3s")
func ParseTimeout(s string) (Timeout, error) {
	s = strings.TrimSpace(s)
	for i, entry := range timeoutTable {
		if strings.EqualFold(entry.name, s) {
			return Timeout(i), nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return TNONE, fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
	}
	return TimeoutFor(d), nil
}
