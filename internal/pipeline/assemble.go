package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
)

// MeteorSourceName names the derived meteor calendar in run status.
const MeteorSourceName = "Meteor Shower Calendar"

// Assembler builds snapshot documents from one run's readings. It performs
// no I/O; given the same readings and time it builds the same documents.
type Assembler struct {
	meteors *domain.MeteorCalendar
}

// NewAssembler creates an Assembler that derives meteor activity from calendar.
func NewAssembler(calendar *domain.MeteorCalendar) *Assembler {
	return &Assembler{meteors: calendar}
}

// Assemble builds every per-domain snapshot in write order. It is total:
// fully degraded readings still produce a complete set of documents.
func (a *Assembler) Assemble(r domain.Readings, now time.Time) []domain.Snapshot {
	updated := now.UTC().Format(time.RFC3339)
	kp := r.CurrentKp()
	aurora := domain.ClassifyAurora(kp)
	xray := domain.ClassifyXray(r.Xray.Flux)
	storm := domain.ClassifyDst(r.Dst.Dst)
	meteor := a.meteors.Activity(now)

	return []domain.Snapshot{
		{Name: domain.SnapshotNOAA, Document: domain.NOAADocument{
			KpIndex:     orEmpty(r.Kp),
			SolarWind:   r.Wind,
			SolarFlares: orEmpty(r.Flares),
			Updated:     updated,
			Source:      domain.SourceSWPC,
		}},
		{Name: domain.SnapshotAurora, Document: domain.AuroraDocument{
			Forecast:    domain.AuroraForecast(kp),
			KpIndex:     kp,
			Level:       aurora,
			Probability: domain.AuroraProbability(kp),
			BestViewing: domain.BestViewing(aurora),
			Updated:     updated,
			Source:      domain.SourceSWPC,
		}},
		{Name: domain.SnapshotXray, Document: domain.XrayDocument{
			Current:     xray.String(),
			Numeric:     r.Xray.Flux,
			Class:       xray.Letter,
			Description: xray.Description(),
			Updated:     updated,
		}},
		{Name: domain.SnapshotDst, Document: domain.DstDocument{
			Current:     r.Dst.Dst,
			StormLevel:  storm,
			Description: storm.Description(),
			Updated:     updated,
		}},
		{Name: domain.SnapshotNews, Document: orEmpty(r.News)},
		{Name: domain.SnapshotMeteor, Document: domain.MeteorDocument{
			Current:         meteor.Level,
			Max:             domain.MaxMeteorLevel,
			Activity:        meteor.Label,
			Description:     meteor.Description,
			Showers:         a.meteors.Showers(),
			ActiveShowers:   orEmpty(meteor.ActiveShowers),
			NextMajorShower: meteor.NextMajorShower,
			Updated:         updated,
		}},
	}
}

// Status builds the run status for a completed run.
func (a *Assembler) Status(r domain.Readings, now time.Time, sources, degraded []string) domain.RunStatus {
	kp := r.CurrentKp()
	xray := domain.ClassifyXray(r.Xray.Flux)

	message := "Space weather data updated successfully"
	if len(degraded) > 0 {
		message = fmt.Sprintf("%s (%d of %d sources degraded)", message, len(degraded), len(sources))
	}

	return domain.RunStatus{
		LastUpdate:      now.UTC().Format(time.RFC3339),
		Status:          domain.StatusSuccess,
		Message:         message,
		DataSources:     orEmpty(sources),
		DegradedSources: orEmpty(degraded),
		Metrics: &domain.RunMetrics{
			KpIndex:        kp,
			AuroraLevel:    domain.ClassifyAurora(kp),
			XrayFlux:       r.Xray.Flux,
			XrayClass:      xray.String(),
			Dst:            r.Dst.Dst,
			StormLevel:     domain.ClassifyDst(r.Dst.Dst),
			SolarWindSpeed: r.Wind.Speed,
			FlareCount:     len(r.Flares),
			NewsCount:      len(r.News),
			MeteorLevel:    a.meteors.Activity(now).Level,
		},
	}
}

// FailureStatus builds the run status for a faulted run. It carries no
// metrics since the readings may be what failed.
func FailureStatus(now time.Time, sources, degraded []string, cause error) domain.RunStatus {
	return domain.RunStatus{
		LastUpdate:      now.UTC().Format(time.RFC3339),
		Status:          domain.StatusError,
		Message:         cause.Error(),
		DataSources:     orEmpty(sources),
		DegradedSources: orEmpty(degraded),
	}
}

// orEmpty keeps nil slices from encoding as JSON null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
