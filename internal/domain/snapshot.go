package domain

// Snapshot names, one file per document in the snapshot store.
const (
	SnapshotNOAA   = "noaa-data"
	SnapshotAurora = "aurora"
	SnapshotXray   = "xray-data"
	SnapshotDst    = "dst-data"
	SnapshotNews   = "news"
	SnapshotMeteor = "meteor"
	SnapshotStatus = "update-status"
)

// Run status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SourceSWPC attributes documents built from SWPC products.
const SourceSWPC = "NOAA Space Weather Prediction Center"

// Snapshot is one named document ready to be written.
type Snapshot struct {
	Name     string
	Document any
}

// NOAADocument is the raw-readings snapshot.
type NOAADocument struct {
	KpIndex     []KpReading  `json:"kpIndex"`
	SolarWind   WindReading  `json:"solarWind"`
	SolarFlares []FlareEvent `json:"solarFlares"`
	Updated     string       `json:"updated"`
	Source      string       `json:"source"`
}

// AuroraDocument is the aurora outlook snapshot.
type AuroraDocument struct {
	Forecast    string      `json:"forecast"`
	KpIndex     float64     `json:"kpIndex"`
	Level       AuroraLevel `json:"level"`
	Probability string      `json:"probability"`
	BestViewing string      `json:"bestViewing"`
	Updated     string      `json:"updated"`
	Source      string      `json:"source"`
}

// XrayDocument is the X-ray flux snapshot.
type XrayDocument struct {
	Current     string  `json:"current"`
	Numeric     float64 `json:"numeric"`
	Class       string  `json:"class"`
	Description string  `json:"description"`
	Updated     string  `json:"updated"`
}

// DstDocument is the Dst snapshot.
type DstDocument struct {
	Current     float64    `json:"current"`
	StormLevel  StormLevel `json:"stormLevel"`
	Description string     `json:"description"`
	Updated     string     `json:"updated"`
}

// MeteorDocument is the meteor activity snapshot.
type MeteorDocument struct {
	Current         int             `json:"current"`
	Max             int             `json:"max"`
	Activity        string          `json:"activity"`
	Description     string          `json:"description"`
	Showers         []ShowerSummary `json:"showers"`
	ActiveShowers   []ShowerSummary `json:"activeShowers"`
	NextMajorShower NextShower      `json:"nextMajorShower"`
	Updated         string          `json:"updated"`
}

// RunMetrics are the headline values a run classified.
type RunMetrics struct {
	KpIndex        float64     `json:"kpIndex"`
	AuroraLevel    AuroraLevel `json:"auroraLevel"`
	XrayFlux       float64     `json:"xrayFlux"`
	XrayClass      string      `json:"xrayClass"`
	Dst            float64     `json:"dst"`
	StormLevel     StormLevel  `json:"stormLevel"`
	SolarWindSpeed float64     `json:"solarWindSpeed"`
	FlareCount     int         `json:"flareCount"`
	NewsCount      int         `json:"newsCount"`
	MeteorLevel    int         `json:"meteorLevel"`
}

// RunStatus summarizes one pipeline run. It is the only error surface that
// downstream consumers see.
type RunStatus struct {
	LastUpdate      string      `json:"lastUpdate"`
	Status          string      `json:"status"`
	Message         string      `json:"message"`
	DataSources     []string    `json:"dataSources"`
	DegradedSources []string    `json:"degradedSources"`
	Metrics         *RunMetrics `json:"metrics,omitempty"`
}
