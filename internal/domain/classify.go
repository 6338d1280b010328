package domain

import (
	"fmt"
	"math"
)

// xrayThresholds are ordered strongest first. Class A has no lower bound and
// uses a 1e-10 base for its magnitude.
var xrayThresholds = []struct {
	letter string
	floor  float64
}{
	{"X", 1e-6},
	{"M", 1e-7},
	{"C", 1e-8},
	{"B", 1e-9},
}

const xrayABase = 1e-10

var xrayDescriptions = map[string]string{
	"X": "Major flare activity. Strong radio blackouts are possible on the sunlit side of Earth.",
	"M": "Moderate flare activity. Brief radio blackouts may affect polar regions.",
	"C": "Minor flare activity. Little or no impact expected.",
	"B": "Low background activity.",
	"A": "Quiet sun. Background X-ray levels.",
}

// XrayClass is a flare class letter with its magnitude, e.g. M2.3.
type XrayClass struct {
	Letter    string
	Magnitude float64
}

func (c XrayClass) String() string {
	return fmt.Sprintf("%s%.1f", c.Letter, c.Magnitude)
}

// Description returns the fixed narrative for the class letter.
func (c XrayClass) Description() string {
	return xrayDescriptions[c.Letter]
}

// ClassifyXray picks the largest threshold the flux meets or exceeds.
// Non-finite or non-positive flux classifies as A0.0.
func ClassifyXray(flux float64) XrayClass {
	if !isFinite(flux) || flux <= 0 {
		return XrayClass{Letter: "A", Magnitude: 0}
	}
	for _, t := range xrayThresholds {
		if flux >= t.floor {
			return XrayClass{Letter: t.letter, Magnitude: round1(flux / t.floor)}
		}
	}
	return XrayClass{Letter: "A", Magnitude: round1(flux / xrayABase)}
}

// StormLevel is a geomagnetic storm severity derived from Dst.
type StormLevel string

const (
	StormQuiet    StormLevel = "Quiet"
	StormMinor    StormLevel = "Minor"
	StormModerate StormLevel = "Moderate"
	StormStrong   StormLevel = "Strong"
	StormSevere   StormLevel = "Severe"
)

var stormDescriptions = map[StormLevel]string{
	StormQuiet:    "Geomagnetic field is quiet. No storm in progress.",
	StormMinor:    "Minor geomagnetic disturbance. Weak power grid fluctuations possible.",
	StormModerate: "Moderate geomagnetic storm. Aurora may be visible at higher latitudes.",
	StormStrong:   "Strong geomagnetic storm. Aurora likely at mid latitudes; satellite operations may be affected.",
	StormSevere:   "Severe geomagnetic storm. Widespread aurora; power grids and navigation systems may be disrupted.",
}

// Description returns the fixed narrative for the level.
func (l StormLevel) Description() string {
	return stormDescriptions[l]
}

// ClassifyDst maps a Dst value in nanotesla to a storm level.
func ClassifyDst(dst float64) StormLevel {
	switch {
	case !isFinite(dst):
		return StormQuiet
	case dst <= -100:
		return StormSevere
	case dst <= -50:
		return StormStrong
	case dst <= -30:
		return StormModerate
	case dst <= -20:
		return StormMinor
	default:
		return StormQuiet
	}
}

// AuroraLevel is the aurora visibility level derived from Kp.
type AuroraLevel string

const (
	AuroraLow      AuroraLevel = "LOW"
	AuroraModerate AuroraLevel = "MODERATE"
	AuroraHigh     AuroraLevel = "HIGH"
)

var bestViewing = map[AuroraLevel]string{
	AuroraLow:      "Unlikely tonight outside polar regions. Check again after local midnight if Kp rises.",
	AuroraModerate: "Possible at high latitudes between 22:00 and 02:00 local time, away from city lights.",
	AuroraHigh:     "Likely at mid latitudes between 21:00 and 03:00 local time. Look toward the poleward horizon.",
}

// ClassifyAurora maps a Kp value to an aurora visibility level.
func ClassifyAurora(kp float64) AuroraLevel {
	switch {
	case !isFinite(kp):
		return AuroraLow
	case kp >= 6:
		return AuroraHigh
	case kp >= 4:
		return AuroraModerate
	default:
		return AuroraLow
	}
}

// AuroraProbability is "High" when Kp is at least 5, else "Low".
func AuroraProbability(kp float64) string {
	if isFinite(kp) && kp >= 5 {
		return "High"
	}
	return "Low"
}

// BestViewing returns the visibility window for the level.
func BestViewing(level AuroraLevel) string {
	if s, ok := bestViewing[level]; ok {
		return s
	}
	return bestViewing[AuroraLow]
}

// AuroraForecast builds the narrative forecast for the current Kp, with a
// naive +0.5 projection for the next three hours.
func AuroraForecast(kp float64) string {
	if !isFinite(kp) {
		kp = 0
	}
	projected := math.Min(kp+0.5, 9)
	return fmt.Sprintf("Current Kp index is %.1f (%s aurora activity). Projected Kp for the next 3 hours: %.1f (%s).",
		kp, ClassifyAurora(kp), projected, ClassifyAurora(projected))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
