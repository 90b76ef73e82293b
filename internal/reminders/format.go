package reminders

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	longLayout  = "Monday, January 2, 3:04 PM"
	shortLayout = "3:04 PM"
)

// FormatRange renders a spot's start and end in loc. When both fall on the
// same local date the end is rendered as a bare time.
func FormatRange(start, end time.Time, loc *time.Location) (starts, ends string) {
	s, e := start.In(loc), end.In(loc)
	starts = s.Format(longLayout)
	if sameDay(s, e) {
		return starts, e.Format(shortLayout)
	}
	return starts, e.Format(longLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// zones resolves organization timezones once per run. Unknown names fall
// back to UTC.
type zones struct {
	log   *zerolog.Logger
	cache map[string]*time.Location
}

func newZones(log *zerolog.Logger) *zones {
	return &zones{log: log, cache: make(map[string]*time.Location)}
}

func (z *zones) get(name string) *time.Location {
	if loc, ok := z.cache[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		z.log.Warn().Err(err).Str("timezone", name).Msg("unknown organization timezone, using UTC")
		loc = time.UTC
	}
	z.cache[name] = loc
	return loc
}
