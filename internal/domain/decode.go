package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// layout tags which upstream shape a payload decoded as.
type layout int

const (
	layoutObjects layout = iota + 1 // [{"time_tag": ..., "kp_index": ...}, ...]
	layoutRows                      // [["time_tag", "Kp"], ["2025-08-27 00:00:00.000", "1.33"], ...]
)

// table is a payload after shape reconciliation. Exactly one of objects or
// rows is populated, selected by layout. Header rows are already removed.
type table struct {
	layout  layout
	objects []map[string]json.RawMessage
	rows    [][]json.RawMessage
}

// timeLayouts lists the time tag formats seen across SWPC and DONKI feeds.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z",
	"2006-01-02 15:04",
}

// decodeTable tries the object layout, then the positional layout, then a
// single bare object. Anything else is a ShapeError.
func decodeTable(feed string, raw []byte) (table, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return table{}, &ShapeError{Feed: feed, Err: errors.New("empty payload")}
	}

	var objects []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &objects); err == nil {
		return table{layout: layoutObjects, objects: objects}, nil
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) > 0 && isHeaderRow(rows[0]) {
			rows = rows[1:]
		}
		return table{layout: layoutRows, rows: rows}, nil
	}

	var single map[string]json.RawMessage
	if err := json.Unmarshal(raw, &single); err == nil {
		return table{layout: layoutObjects, objects: []map[string]json.RawMessage{single}}, nil
	}

	return table{}, &ShapeError{Feed: feed, Err: errors.New("payload is neither a list of objects nor a list of rows")}
}

// isHeaderRow reports whether a positional row is a column header: every
// cell is a string that is neither a time tag nor a number. A data row with
// an unreadable time tag still carries numeric cells and is kept.
func isHeaderRow(row []json.RawMessage) bool {
	if len(row) == 0 {
		return false
	}
	for _, cell := range row {
		s, ok := cellString(cell)
		if !ok {
			return false
		}
		if _, ok := parseTime(s); ok {
			return false
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return false
		}
	}
	return true
}

// DecodeKp normalizes a planetary K-index payload.
func DecodeKp(raw []byte) ([]KpReading, error) {
	t, err := decodeTable("kp", raw)
	if err != nil {
		return nil, err
	}

	var out []KpReading
	switch t.layout {
	case layoutObjects:
		for _, obj := range t.objects {
			if obj == nil {
				continue
			}
			kp := cellFloat(field(obj, "kp_index", "Kp", "kp"))
			estimated := kp
			if v := field(obj, "estimated_kp"); v != nil {
				estimated = cellFloat(v)
			}
			out = append(out, KpReading{
				Timestamp:   cellTime(field(obj, "time_tag")),
				KpValue:     kp,
				EstimatedKp: estimated,
			})
		}
	case layoutRows:
		for _, row := range t.rows {
			if len(row) < 2 {
				continue
			}
			kp := cellFloat(row[1])
			out = append(out, KpReading{Timestamp: cellTime(row[0]), KpValue: kp, EstimatedKp: kp})
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("kp: %w", ErrNoData)
	}
	return out, nil
}

// DecodeWind returns the most recent solar wind plasma reading. Rows with
// every measurement missing are upstream gaps and are passed over unless
// nothing else exists.
func DecodeWind(raw []byte) (WindReading, error) {
	t, err := decodeTable("solar wind", raw)
	if err != nil {
		return WindReading{}, err
	}

	var all []WindReading
	switch t.layout {
	case layoutObjects:
		for _, obj := range t.objects {
			if obj == nil {
				continue
			}
			all = append(all, WindReading{
				Timestamp:   cellTime(field(obj, "time_tag")),
				Density:     cellFloat(field(obj, "density", "proton_density")),
				Speed:       cellFloat(field(obj, "speed", "proton_speed")),
				Temperature: cellFloat(field(obj, "temperature", "proton_temperature")),
			})
		}
	case layoutRows:
		for _, row := range t.rows {
			if len(row) == 0 {
				continue
			}
			all = append(all, WindReading{
				Timestamp:   cellTime(row[0]),
				Density:     cellFloat(cell(row, 1)),
				Speed:       cellFloat(cell(row, 2)),
				Temperature: cellFloat(cell(row, 3)),
			})
		}
	}

	if len(all) == 0 {
		return WindReading{}, fmt.Errorf("solar wind: %w", ErrNoData)
	}
	return latest(all, func(r WindReading) bool { return !r.empty() }), nil
}

// DecodeXray returns the most recent long-band X-ray flux reading.
func DecodeXray(raw []byte) (XrayReading, error) {
	t, err := decodeTable("xray", raw)
	if err != nil {
		return XrayReading{}, err
	}

	var all []XrayReading
	switch t.layout {
	case layoutObjects:
		for _, obj := range t.objects {
			if obj == nil {
				continue
			}
			if energy, ok := cellString(field(obj, "energy")); ok && energy != "" && energy != "0.1-0.8nm" {
				continue
			}
			all = append(all, XrayReading{
				Timestamp: cellTime(field(obj, "time_tag")),
				Flux:      cellFloat(field(obj, "flux")),
			})
		}
	case layoutRows:
		for _, row := range t.rows {
			if len(row) == 0 {
				continue
			}
			all = append(all, XrayReading{Timestamp: cellTime(row[0]), Flux: cellFloat(cell(row, 1))})
		}
	}

	if len(all) == 0 {
		return XrayReading{}, fmt.Errorf("xray: %w", ErrNoData)
	}
	return latest(all, func(r XrayReading) bool { return r.Flux > 0 }), nil
}

// DecodeDst returns the most recent Dst reading.
func DecodeDst(raw []byte) (DstReading, error) {
	t, err := decodeTable("dst", raw)
	if err != nil {
		return DstReading{}, err
	}

	var all []DstReading
	switch t.layout {
	case layoutObjects:
		for _, obj := range t.objects {
			if obj == nil {
				continue
			}
			all = append(all, DstReading{
				Timestamp: cellTime(field(obj, "time_tag")),
				Dst:       cellFloat(field(obj, "dst")),
			})
		}
	case layoutRows:
		for _, row := range t.rows {
			if len(row) == 0 {
				continue
			}
			all = append(all, DstReading{Timestamp: cellTime(row[0]), Dst: cellFloat(cell(row, 1))})
		}
	}

	if len(all) == 0 {
		return DstReading{}, fmt.Errorf("dst: %w", ErrNoData)
	}
	return all[len(all)-1], nil
}

// DecodeFlares normalizes a flare catalog. Both the GOES event list
// (begin_time/max_time/max_class) and the DONKI list
// (beginTime/peakTime/classType) are accepted.
func DecodeFlares(raw []byte) ([]FlareEvent, error) {
	t, err := decodeTable("flares", raw)
	if err != nil {
		return nil, err
	}
	if t.layout != layoutObjects {
		return nil, &ShapeError{Feed: "flares", Err: errors.New("flare catalog must be a list of objects")}
	}

	var out []FlareEvent
	for _, obj := range t.objects {
		if obj == nil {
			continue
		}
		classType, _ := cellString(field(obj, "max_class", "classType", "class"))
		classType = strings.ToUpper(strings.TrimSpace(classType))
		begin := cellTime(field(obj, "begin_time", "beginTime"))
		if begin == "" && classType == "" {
			continue
		}
		letter, magnitude := parseFlareClass(classType)
		out = append(out, FlareEvent{
			BeginTime:      begin,
			PeakTime:       cellTime(field(obj, "max_time", "peakTime", "peak_time")),
			ClassType:      classType,
			ClassLetter:    letter,
			ClassMagnitude: magnitude,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("flares: %w", ErrNoData)
	}
	return out, nil
}

// parseFlareClass splits a GOES class string such as "M1.2" into its letter
// and magnitude. Unrecognized strings yield ("", 0).
func parseFlareClass(s string) (string, float64) {
	if s == "" || !strings.ContainsAny(s[:1], "ABCMX") {
		return "", 0
	}
	v, err := strconv.ParseFloat(s[1:], 64)
	if err != nil || !isFinite(v) {
		return s[:1], 0
	}
	return s[:1], v
}

// latest returns the last element satisfying keep, or the last element when
// none does. all must be non-empty.
func latest[T any](all []T, keep func(T) bool) T {
	for i := len(all) - 1; i >= 0; i-- {
		if keep(all[i]) {
			return all[i]
		}
	}
	return all[len(all)-1]
}

// field returns the first non-null value among keys.
func field(obj map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := obj[k]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

func cell(row []json.RawMessage, i int) json.RawMessage {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

func cellString(v json.RawMessage) (string, bool) {
	if isNull(v) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// cellFloat coerces a JSON number or numeric string to a finite float,
// returning 0 for anything else.
func cellFloat(v json.RawMessage) float64 {
	if isNull(v) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	s, ok := cellString(v)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !isFinite(f) {
		return 0
	}
	return f
}

// cellTime returns a time tag normalized to RFC 3339 UTC, or the trimmed raw
// string when it matches no known layout.
func cellTime(v json.RawMessage) string {
	s, ok := cellString(v)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if t, ok := parseTime(s); ok {
		return t.Format(time.RFC3339)
	}
	return s
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
