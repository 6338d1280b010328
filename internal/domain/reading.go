package domain

// Window sizes applied by the source adapters.
const (
	KpWindow    = 24
	FlareWindow = 10
	NewsLimit   = 20
)

// KpReading is one planetary K-index sample.
type KpReading struct {
	Timestamp   string  `json:"timestamp"`
	KpValue     float64 `json:"kpValue"`
	EstimatedKp float64 `json:"estimatedKp"`
}

// Current returns the estimated Kp when the feed provides one, else the
// reported value.
func (r KpReading) Current() float64 {
	if r.EstimatedKp > 0 {
		return r.EstimatedKp
	}
	return r.KpValue
}

// WindReading is one solar wind plasma sample from the L1 monitor.
type WindReading struct {
	Timestamp   string  `json:"timestamp"`
	Density     float64 `json:"density"`     // protons/cm³
	Speed       float64 `json:"speed"`       // km/s
	Temperature float64 `json:"temperature"` // K
}

func (r WindReading) empty() bool {
	return r.Density == 0 && r.Speed == 0 && r.Temperature == 0
}

// XrayReading is one GOES long-band (0.1-0.8nm) X-ray flux sample.
type XrayReading struct {
	Timestamp string  `json:"timestamp"`
	Flux      float64 `json:"flux"` // W/m²
}

// DstReading is one hourly disturbance storm-time index value.
type DstReading struct {
	Timestamp string  `json:"timestamp"`
	Dst       float64 `json:"dst"` // nT
}

// FlareEvent is one catalogued solar flare.
type FlareEvent struct {
	BeginTime      string  `json:"beginTime"`
	PeakTime       string  `json:"peakTime"`
	ClassType      string  `json:"classType"`
	ClassLetter    string  `json:"classLetter"`
	ClassMagnitude float64 `json:"classMagnitude"`
}

// NewsItem is one syndicated news entry.
type NewsItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

// Readings aggregates the normalized output of every source for one run.
// The zero value is the fully degraded state.
type Readings struct {
	Kp     []KpReading
	Wind   WindReading
	Xray   XrayReading
	Flares []FlareEvent
	Dst    DstReading
	News   []NewsItem
}

// CurrentKp returns the most recent Kp value, or 0 when no readings exist.
func (r Readings) CurrentKp() float64 {
	if len(r.Kp) == 0 {
		return 0
	}
	return r.Kp[len(r.Kp)-1].Current()
}

// Contribution is the result one source hands back to the pipeline. Each
// variant owns exactly one field of Readings.
type Contribution interface {
	Apply(r *Readings)
}

// KpContribution carries the windowed Kp history.
type KpContribution []KpReading

func (c KpContribution) Apply(r *Readings) { r.Kp = append([]KpReading(nil), c...) }

// WindContribution carries the latest solar wind reading.
type WindContribution WindReading

func (c WindContribution) Apply(r *Readings) { r.Wind = WindReading(c) }

// XrayContribution carries the latest X-ray flux reading.
type XrayContribution XrayReading

func (c XrayContribution) Apply(r *Readings) { r.Xray = XrayReading(c) }

// FlareContribution carries the windowed flare list.
type FlareContribution []FlareEvent

func (c FlareContribution) Apply(r *Readings) { r.Flares = append([]FlareEvent(nil), c...) }

// DstContribution carries the latest Dst reading.
type DstContribution DstReading

func (c DstContribution) Apply(r *Readings) { r.Dst = DstReading(c) }

// NewsContribution carries the merged news items.
type NewsContribution []NewsItem

func (c NewsContribution) Apply(r *Readings) { r.News = append([]NewsItem(nil), c...) }

// Tail returns the last n elements of s.
func Tail[T any](s []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
