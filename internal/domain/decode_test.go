package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKp(t *testing.T) {
	t.Run("list of objects", func(t *testing.T) {
		raw := []byte(`[
			{"time_tag":"2026-10-14T09:00:00","kp_index":3,"estimated_kp":3.33,"kp":"3M"},
			{"time_tag":"2026-10-14T12:00:00","kp_index":4,"estimated_kp":4.67,"kp":"5-"}
		]`)
		got, err := DecodeKp(raw)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, KpReading{Timestamp: "2026-10-14T12:00:00Z", KpValue: 4, EstimatedKp: 4.67}, got[1])
		assert.InDelta(t, 4.67, got[1].Current(), 1e-9)
	})

	t.Run("list of rows with header", func(t *testing.T) {
		raw := []byte(`[
			["time_tag","Kp","a_running","station_count"],
			["2026-10-14 09:00:00.000","5.00","48","8"],
			["2026-10-14 12:00:00.000","6.33","80","8"]
		]`)
		got, err := DecodeKp(raw)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2026-10-14T09:00:00Z", got[0].Timestamp)
		assert.InDelta(t, 6.33, got[1].Current(), 1e-9)
	})

	t.Run("rows without header", func(t *testing.T) {
		got, err := DecodeKp([]byte(`[["2026-10-14 09:00:00.000",5.0],["2026-10-14 12:00:00.000",6.3]]`))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.InDelta(t, 5.0, got[0].KpValue, 1e-9)
	})

	t.Run("missing estimate falls back to kp", func(t *testing.T) {
		got, err := DecodeKp([]byte(`[{"time_tag":"2026-10-14T12:00:00","Kp":2.33}]`))
		require.NoError(t, err)
		assert.InDelta(t, 2.33, got[0].EstimatedKp, 1e-9)
	})

	t.Run("garbage values read as zero", func(t *testing.T) {
		got, err := DecodeKp([]byte(`[["2026-10-14 12:00:00.000","n/a"],["2026-10-14 15:00:00.000",null]]`))
		require.NoError(t, err)
		for _, r := range got {
			assert.Zero(t, r.KpValue)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := DecodeKp([]byte(`[]`))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := DecodeKp([]byte(`[["time_tag","Kp"]]`))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("unknown shape", func(t *testing.T) {
		_, err := DecodeKp([]byte(`"maintenance"`))
		var shape *ShapeError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "kp", shape.Feed)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := DecodeKp([]byte("  "))
		var shape *ShapeError
		assert.ErrorAs(t, err, &shape)
	})
}

func TestDecodeWind(t *testing.T) {
	t.Run("rows skip trailing gap", func(t *testing.T) {
		raw := []byte(`[
			["time_tag","density","speed","temperature"],
			["2026-10-14 14:57:00.000","4.91","401.2","88125"],
			["2026-10-14 14:58:00.000","5.02","398.7","91000"],
			["2026-10-14 14:59:00.000",null,null,null]
		]`)
		got, err := DecodeWind(raw)
		require.NoError(t, err)
		assert.Equal(t, WindReading{Timestamp: "2026-10-14T14:58:00Z", Density: 5.02, Speed: 398.7, Temperature: 91000}, got)
	})

	t.Run("objects with proton keys", func(t *testing.T) {
		raw := []byte(`[{"time_tag":"2026-10-14T14:58:00Z","proton_density":3.1,"proton_speed":512,"proton_temperature":150000}]`)
		got, err := DecodeWind(raw)
		require.NoError(t, err)
		assert.InDelta(t, 512, got.Speed, 0)
		assert.InDelta(t, 3.1, got.Density, 1e-9)
	})

	t.Run("single object", func(t *testing.T) {
		got, err := DecodeWind([]byte(`{"time_tag":"2026-10-14T14:58:00Z","speed":"455.5"}`))
		require.NoError(t, err)
		assert.InDelta(t, 455.5, got.Speed, 1e-9)
	})

	t.Run("only gaps returns the last row", func(t *testing.T) {
		got, err := DecodeWind([]byte(`[["2026-10-14 14:59:00.000",null,null,null]]`))
		require.NoError(t, err)
		assert.Equal(t, "2026-10-14T14:59:00Z", got.Timestamp)
		assert.Zero(t, got.Speed)
	})
}

func TestDecodeXray(t *testing.T) {
	t.Run("keeps only the long band", func(t *testing.T) {
		raw := []byte(`[
			{"time_tag":"2026-10-14T14:58:00Z","satellite":18,"flux":2.1e-6,"energy":"0.1-0.8nm"},
			{"time_tag":"2026-10-14T14:58:00Z","satellite":18,"flux":3.4e-8,"energy":"0.05-0.4nm"}
		]`)
		got, err := DecodeXray(raw)
		require.NoError(t, err)
		assert.InDelta(t, 2.1e-6, got.Flux, 1e-15)
	})

	t.Run("skips trailing zero flux", func(t *testing.T) {
		raw := []byte(`[
			{"time_tag":"2026-10-14T14:57:00Z","flux":4.4e-7},
			{"time_tag":"2026-10-14T14:58:00Z","flux":0}
		]`)
		got, err := DecodeXray(raw)
		require.NoError(t, err)
		assert.Equal(t, "2026-10-14T14:57:00Z", got.Timestamp)
	})

	t.Run("only short band is no data", func(t *testing.T) {
		_, err := DecodeXray([]byte(`[{"time_tag":"2026-10-14T14:58:00Z","flux":3.4e-8,"energy":"0.05-0.4nm"}]`))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("rows", func(t *testing.T) {
		got, err := DecodeXray([]byte(`[["time_tag","flux"],["2026-10-14 14:58:00","1.2e-7"]]`))
		require.NoError(t, err)
		assert.InDelta(t, 1.2e-7, got.Flux, 1e-15)
	})
}

func TestDecodeDst(t *testing.T) {
	t.Run("rows take the last value", func(t *testing.T) {
		raw := []byte(`[["time_tag","dst"],["2026-10-14 13:00:00","-41"],["2026-10-14 14:00:00","-55"]]`)
		got, err := DecodeDst(raw)
		require.NoError(t, err)
		assert.Equal(t, DstReading{Timestamp: "2026-10-14T14:00:00Z", Dst: -55}, got)
	})

	t.Run("objects", func(t *testing.T) {
		got, err := DecodeDst([]byte(`[{"time_tag":"2026-10-14T14:00:00","dst":-12}]`))
		require.NoError(t, err)
		assert.InDelta(t, -12, got.Dst, 0)
	})

	t.Run("unparseable leading time is kept as data", func(t *testing.T) {
		got, err := DecodeDst([]byte(`[["2026 day 287","-3"]]`))
		require.NoError(t, err)
		assert.Equal(t, "2026 day 287", got.Timestamp)
		assert.InDelta(t, -3, got.Dst, 0)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := DecodeDst([]byte(`[["time_tag","dst"]]`))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("unparseable later time is kept verbatim", func(t *testing.T) {
		got, err := DecodeDst([]byte(`[["2026-10-14 13:00:00","-41"],["2026 day 287","-3"]]`))
		require.NoError(t, err)
		assert.Equal(t, "2026 day 287", got.Timestamp)
		assert.InDelta(t, -3, got.Dst, 0)
	})
}

func TestDecodeFlares(t *testing.T) {
	t.Run("GOES event list", func(t *testing.T) {
		raw := []byte(`[
			{"begin_time":"2026-10-14T10:02:00Z","max_time":"2026-10-14T10:11:00Z","end_time":"2026-10-14T10:20:00Z","max_class":"M1.4"},
			{"begin_time":"2026-10-14T12:40:00Z","max_time":null,"max_class":"c3.2"}
		]`)
		got, err := DecodeFlares(raw)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, FlareEvent{
			BeginTime:      "2026-10-14T10:02:00Z",
			PeakTime:       "2026-10-14T10:11:00Z",
			ClassType:      "M1.4",
			ClassLetter:    "M",
			ClassMagnitude: 1.4,
		}, got[0])
		assert.Equal(t, "C3.2", got[1].ClassType)
		assert.Empty(t, got[1].PeakTime)
	})

	t.Run("DONKI list", func(t *testing.T) {
		raw := []byte(`[{"flrID":"2026-10-13T22:05:00-FLR-001","beginTime":"2026-10-13T22:05Z","peakTime":"2026-10-13T22:17Z","classType":"X1.1"}]`)
		got, err := DecodeFlares(raw)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2026-10-13T22:05:00Z", got[0].BeginTime)
		assert.Equal(t, "X", got[0].ClassLetter)
		assert.InDelta(t, 1.1, got[0].ClassMagnitude, 1e-9)
	})

	t.Run("entries without time or class are skipped", func(t *testing.T) {
		_, err := DecodeFlares([]byte(`[{"satellite":18}]`))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("rows are rejected", func(t *testing.T) {
		_, err := DecodeFlares([]byte(`[["begin_time","max_class"],["2026-10-14T10:02:00Z","M1.4"]]`))
		var shape *ShapeError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "flares", shape.Feed)
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, err := DecodeFlares([]byte(`[]`))
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestParseFlareClass(t *testing.T) {
	tests := []struct {
		in        string
		letter    string
		magnitude float64
	}{
		{"M1.4", "M", 1.4},
		{"X10", "X", 10},
		{"B", "B", 0},
		{"Z1.0", "", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		letter, magnitude := parseFlareClass(tt.in)
		assert.Equal(t, tt.letter, letter, tt.in)
		assert.InDelta(t, tt.magnitude, magnitude, 1e-9, tt.in)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	fetch := &FetchError{URL: "https://example.test/kp", StatusCode: 502, Err: cause}
	assert.ErrorIs(t, fetch, cause)
	assert.Contains(t, fetch.Error(), "https://example.test/kp")

	shape := &ShapeError{Feed: "dst", Err: cause}
	assert.ErrorIs(t, shape, cause)
	assert.Contains(t, shape.Error(), "dst")

	write := &WriteError{Name: SnapshotAurora, Err: cause}
	assert.ErrorIs(t, write, cause)
	assert.Contains(t, write.Error(), SnapshotAurora)
}

func TestTail(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{4, 5}, Tail(s, 2))
	assert.Equal(t, s, Tail(s, 10))
	assert.Nil(t, Tail(s, 0))
	assert.Empty(t, Tail([]int(nil), 3))
}

func TestReadings_CurrentKp(t *testing.T) {
	assert.Zero(t, Readings{}.CurrentKp())

	r := Readings{Kp: []KpReading{{KpValue: 2}, {KpValue: 5, EstimatedKp: 0}}}
	assert.InDelta(t, 5, r.CurrentKp(), 0)
}

func TestContributions_Apply(t *testing.T) {
	var r Readings
	contributions := []Contribution{
		KpContribution{{KpValue: 3, EstimatedKp: 3}},
		WindContribution{Speed: 400},
		XrayContribution{Flux: 1e-7},
		FlareContribution{{ClassType: "C1.0"}},
		DstContribution{Dst: -20},
		NewsContribution{{Title: "Quiet week"}},
	}
	for _, c := range contributions {
		c.Apply(&r)
	}

	assert.Len(t, r.Kp, 1)
	assert.InDelta(t, 400, r.Wind.Speed, 0)
	assert.InDelta(t, 1e-7, r.Xray.Flux, 1e-15)
	assert.Len(t, r.Flares, 1)
	assert.InDelta(t, -20, r.Dst.Dst, 0)
	assert.Len(t, r.News, 1)
}

func TestIsHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want bool
	}{
		{"column names", `["time_tag","Kp","a_running","station_count"]`, true},
		{"time tag first", `["2026-10-14 09:00:00.000","5.00"]`, false},
		{"unreadable time with numeric cell", `["2026 day 287","-3"]`, false},
		{"numeric literal cell", `["label",5]`, false},
		{"null cell", `["time_tag",null]`, false},
		{"empty", `[]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var row []json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.row), &row))
			assert.Equal(t, tt.want, isHeaderRow(row))
		})
	}
}
