// Package domain models space-weather readings, their classifications, and
// the snapshot documents published to the presentation layer.
//
// # Data Sources
//
// Readings originate from the NOAA Space Weather Prediction Center (SWPC)
// JSON products at https://services.swpc.noaa.gov/, the NASA DONKI flare
// catalog (fallback for solar flares), and a handful of RSS news feeds.
// Meteor activity has no upstream feed; it is derived from a fixed calendar.
//
// # Upstream Shapes
//
// SWPC publishes the same quantities in two layouts, often for the same feed:
//
//	Objects:    [{"time_tag":"2025-08-27T00:00:00","kp_index":2,"estimated_kp":2.33}, ...]
//	Positional: [["time_tag","Kp","a_running","station_count"],
//	             ["2025-08-27 00:00:00.000","1.33","5","8"], ...]
//
// The positional layout carries a header row and encodes numbers as strings.
// Each feed decoder tries the object layout first, then the positional one,
// and otherwise fails with a [ShapeError]. See [decodeTable].
//
// Numeric cells may be JSON numbers, numeric strings, null, or garbage.
// Anything that does not parse to a finite float becomes 0.
//
// Time tags arrive as "2006-01-02 15:04:05.000", "2006-01-02T15:04:05",
// "2006-01-02T15:04Z" (DONKI) or RFC 3339. They are normalized to RFC 3339
// UTC; unparsable tags are kept verbatim.
//
// # Classification Thresholds
//
//	X-ray flux (W/m²): ≥1e-6 X | ≥1e-7 M | ≥1e-8 C | ≥1e-9 B | else A
//	Dst (nT):          ≤-100 Severe | ≤-50 Strong | ≤-30 Moderate | ≤-20 Minor | else Quiet
//	Kp (aurora):       ≥6 HIGH | ≥4 MODERATE | else LOW; probability High when Kp ≥5
//
// The X-ray cut points are one decade below the NOAA GOES scale. They are the
// thresholds the presentation layer has always displayed and are kept as-is.
//
// # Windowing
//
// Kp keeps the last 24 entries (72 hours of 3-hour values), flares the last
// 10 events, and solar wind, X-ray and Dst only the most recent reading.
package domain
