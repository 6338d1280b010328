package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxMeteorLevel is the top of the meteor activity scale.
const MaxMeteorLevel = 10

type monthDay struct {
	month time.Month
	day   int
}

func (md monthDay) ordinal() int { return int(md.month)*100 + md.day }

func (md monthDay) String() string {
	return fmt.Sprintf("%s %02d", md.month.String()[:3], md.day)
}

// Shower is one annual meteor shower.
type Shower struct {
	Name   string
	Start  monthDay
	Peak   monthDay
	End    monthDay
	ZHR    int
	Rating string // major, moderate, or minor
}

// ShowerSummary is the published form of a shower.
type ShowerSummary struct {
	Name   string `json:"name"`
	Peak   string `json:"peak"`
	Active string `json:"active"`
	ZHR    int    `json:"zhr"`
	Rating string `json:"rating"`
}

// Summary renders the shower for publication.
func (s Shower) Summary() ShowerSummary {
	return ShowerSummary{
		Name:   s.Name,
		Peak:   s.Peak.String(),
		Active: s.Start.String() + " - " + s.End.String(),
		ZHR:    s.ZHR,
		Rating: s.Rating,
	}
}

// active reports whether date falls inside the shower's window. Windows may
// wrap the new year.
func (s Shower) active(date time.Time) bool {
	x := monthDay{date.Month(), date.Day()}.ordinal()
	start, end := s.Start.ordinal(), s.End.ordinal()
	if start <= end {
		return x >= start && x <= end
	}
	return x >= start || x <= end
}

// daysToPeak returns the distance in whole days from date to the nearest peak.
func (s Shower) daysToPeak(date time.Time) int {
	best := -1
	for _, y := range []int{date.Year() - 1, date.Year(), date.Year() + 1} {
		d := daysBetween(date, s.peakIn(y))
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func (s Shower) peakIn(year int) time.Time {
	return time.Date(year, s.Peak.month, s.Peak.day, 0, 0, 0, 0, time.UTC)
}

// annualShowers is the fixed calendar of the six showers worth watching.
var annualShowers = []Shower{
	{Name: "Quadrantids", Start: monthDay{time.December, 28}, Peak: monthDay{time.January, 3}, End: monthDay{time.January, 12}, ZHR: 120, Rating: "major"},
	{Name: "Lyrids", Start: monthDay{time.April, 14}, Peak: monthDay{time.April, 22}, End: monthDay{time.April, 30}, ZHR: 18, Rating: "minor"},
	{Name: "Eta Aquariids", Start: monthDay{time.April, 19}, Peak: monthDay{time.May, 6}, End: monthDay{time.May, 28}, ZHR: 50, Rating: "moderate"},
	{Name: "Perseids", Start: monthDay{time.July, 17}, Peak: monthDay{time.August, 12}, End: monthDay{time.August, 24}, ZHR: 100, Rating: "major"},
	{Name: "Orionids", Start: monthDay{time.October, 2}, Peak: monthDay{time.October, 21}, End: monthDay{time.November, 7}, ZHR: 20, Rating: "moderate"},
	{Name: "Geminids", Start: monthDay{time.December, 4}, Peak: monthDay{time.December, 14}, End: monthDay{time.December, 20}, ZHR: 150, Rating: "major"},
}

var meteorDescriptions = map[string]string{
	"Low":       "Sporadic meteors only. Expect a few per hour under dark skies.",
	"Moderate":  "A shower is active. Several meteors per hour are possible after midnight.",
	"High":      "Strong shower activity near peak. Dozens of meteors per hour under dark skies.",
	"Very High": "Exceptional shower activity. Find a dark site and look up.",
}

// NextShower describes the next major shower peak.
type NextShower struct {
	Name      string `json:"name"`
	PeakDate  string `json:"peakDate"`
	DaysUntil int    `json:"daysUntil"`
	ZHR       int    `json:"zhr"`
}

// MeteorActivity is the meteor classification for one date.
type MeteorActivity struct {
	Level           int
	Label           string
	Description     string
	ActiveShowers   []ShowerSummary
	NextMajorShower NextShower
}

// MeteorCalendar derives meteor activity from the shower table. The level
// jitter stands in for a live observation feed; it is a pure function of
// the seed and the date, so the same calendar always answers the same way.
type MeteorCalendar struct {
	seed uint64
}

// NewMeteorCalendar returns a calendar whose jitter is derived from seed.
func NewMeteorCalendar(seed uint64) *MeteorCalendar {
	return &MeteorCalendar{seed: seed}
}

// Showers returns the full shower table in calendar order.
func (c *MeteorCalendar) Showers() []ShowerSummary {
	out := make([]ShowerSummary, 0, len(annualShowers))
	for _, s := range annualShowers {
		out = append(out, s.Summary())
	}
	return out
}

// Activity classifies meteor activity for the UTC calendar day of date.
func (c *MeteorCalendar) Activity(date time.Time) MeteorActivity {
	date = truncateDay(date)

	active := make([]ShowerSummary, 0, 2)
	var strongest *Shower
	for i := range annualShowers {
		s := &annualShowers[i]
		if !s.active(date) {
			continue
		}
		active = append(active, s.Summary())
		if strongest == nil || s.ZHR > strongest.ZHR {
			strongest = s
		}
	}

	level := clampLevel(baseLevel(strongest, date) + c.jitter(date))
	label := meteorLabel(level)
	return MeteorActivity{
		Level:           level,
		Label:           label,
		Description:     meteorDescriptions[label],
		ActiveShowers:   active,
		NextMajorShower: nextMajor(date),
	}
}

// jitter returns -1, 0 or +1 for the day.
func (c *MeteorCalendar) jitter(date time.Time) int {
	day := uint64(date.Year())*10000 + uint64(date.Month())*100 + uint64(date.Day())
	rng := rand.New(rand.NewPCG(c.seed, day))
	return rng.IntN(3) - 1
}

// baseLevel scores the strongest active shower by rate and distance to its
// peak. With nothing active only sporadic meteors remain.
func baseLevel(s *Shower, date time.Time) int {
	if s == nil {
		return 1
	}
	peak := 4
	switch {
	case s.ZHR >= 100:
		peak = 8
	case s.ZHR >= 50:
		peak = 6
	}
	switch d := s.daysToPeak(date); {
	case d <= 1:
		return peak
	case d <= 3:
		return peak - 2
	default:
		return peak / 2
	}
}

func nextMajor(date time.Time) NextShower {
	var next NextShower
	best := -1
	for _, s := range annualShowers {
		if s.Rating != "major" {
			continue
		}
		peak := s.peakIn(date.Year())
		if !peak.After(date) {
			peak = s.peakIn(date.Year() + 1)
		}
		days := daysBetween(date, peak)
		if best < 0 || days < best {
			best = days
			next = NextShower{Name: s.Name, PeakDate: peak.Format(time.DateOnly), DaysUntil: days, ZHR: s.ZHR}
		}
	}
	return next
}

func meteorLabel(level int) string {
	switch {
	case level >= 9:
		return "Very High"
	case level >= 6:
		return "High"
	case level >= 3:
		return "Moderate"
	default:
		return "Low"
	}
}

func clampLevel(v int) int {
	return max(0, min(v, MaxMeteorLevel))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(truncateDay(to).Sub(truncateDay(from)).Hours() / 24)
}
