package noaa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
)

// Fetcher returns the raw payload at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// KpSource collects the planetary K-index history.
type KpSource struct {
	fetcher Fetcher
	url     string
}

// NewKpSource creates a Kp source reading from url.
func NewKpSource(f Fetcher, url string) *KpSource {
	return &KpSource{fetcher: f, url: url}
}

func (s *KpSource) Name() string { return "NOAA SWPC Planetary K-index" }

func (s *KpSource) Default() domain.Contribution { return domain.KpContribution(nil) }

// Collect keeps the last domain.KpWindow readings.
func (s *KpSource) Collect(ctx context.Context) (domain.Contribution, error) {
	raw, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return s.Default(), fmt.Errorf("fetch kp index: %w", err)
	}
	readings, err := domain.DecodeKp(raw)
	if err != nil {
		return s.Default(), err
	}
	return domain.KpContribution(domain.Tail(readings, domain.KpWindow)), nil
}

// WindSource collects the latest solar wind plasma reading.
type WindSource struct {
	fetcher Fetcher
	url     string
}

// NewWindSource creates a solar wind source reading from url.
func NewWindSource(f Fetcher, url string) *WindSource {
	return &WindSource{fetcher: f, url: url}
}

func (s *WindSource) Name() string { return "NOAA SWPC Solar Wind Plasma" }

func (s *WindSource) Default() domain.Contribution { return domain.WindContribution{} }

func (s *WindSource) Collect(ctx context.Context) (domain.Contribution, error) {
	raw, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return s.Default(), fmt.Errorf("fetch solar wind: %w", err)
	}
	reading, err := domain.DecodeWind(raw)
	if err != nil {
		return s.Default(), err
	}
	return domain.WindContribution(reading), nil
}

// XraySource collects the latest GOES X-ray flux reading.
type XraySource struct {
	fetcher Fetcher
	url     string
}

// NewXraySource creates an X-ray flux source reading from url.
func NewXraySource(f Fetcher, url string) *XraySource {
	return &XraySource{fetcher: f, url: url}
}

func (s *XraySource) Name() string { return "NOAA GOES X-ray Flux" }

func (s *XraySource) Default() domain.Contribution { return domain.XrayContribution{} }

func (s *XraySource) Collect(ctx context.Context) (domain.Contribution, error) {
	raw, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return s.Default(), fmt.Errorf("fetch xray flux: %w", err)
	}
	reading, err := domain.DecodeXray(raw)
	if err != nil {
		return s.Default(), err
	}
	return domain.XrayContribution(reading), nil
}

// DstSource collects the latest Kyoto Dst reading.
type DstSource struct {
	fetcher Fetcher
	url     string
}

// NewDstSource creates a Dst source reading from url.
func NewDstSource(f Fetcher, url string) *DstSource {
	return &DstSource{fetcher: f, url: url}
}

func (s *DstSource) Name() string { return "Kyoto Dst Index" }

func (s *DstSource) Default() domain.Contribution { return domain.DstContribution{} }

func (s *DstSource) Collect(ctx context.Context) (domain.Contribution, error) {
	raw, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return s.Default(), fmt.Errorf("fetch dst index: %w", err)
	}
	reading, err := domain.DecodeDst(raw)
	if err != nil {
		return s.Default(), err
	}
	return domain.DstContribution(reading), nil
}

// FlareSource collects recent solar flares. When the primary catalog fails
// or is empty, the fallback catalog is tried exactly once.
type FlareSource struct {
	fetcher      Fetcher
	primaryURL   string
	fallbackURL  string
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewFlareSource creates a flare source. An empty fallbackURL disables the
// fallback. fetchTimeout bounds each catalog fetch on its own so a hanging
// primary leaves the fallback a full budget; zero means no extra bound.
func NewFlareSource(f Fetcher, primaryURL, fallbackURL string, fetchTimeout time.Duration, logger *slog.Logger) *FlareSource {
	return &FlareSource{
		fetcher:      f,
		primaryURL:   primaryURL,
		fallbackURL:  fallbackURL,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

func (s *FlareSource) Name() string { return "Solar Flare Catalog" }

// Attempts reports how many sequential catalog fetches Collect may make.
func (s *FlareSource) Attempts() int {
	if s.fallbackURL == "" {
		return 1
	}
	return 2
}

func (s *FlareSource) Default() domain.Contribution { return domain.FlareContribution(nil) }

// Collect keeps the last domain.FlareWindow events.
func (s *FlareSource) Collect(ctx context.Context) (domain.Contribution, error) {
	events, err := s.collectFrom(ctx, s.primaryURL)
	if err == nil {
		return domain.FlareContribution(domain.Tail(events, domain.FlareWindow)), nil
	}
	if s.fallbackURL == "" {
		return s.Default(), err
	}

	s.logger.Warn("primary flare catalog unavailable, trying fallback",
		"primary", s.primaryURL,
		"fallback", s.fallbackURL,
		"error", err,
	)
	events, fallbackErr := s.collectFrom(ctx, s.fallbackURL)
	if fallbackErr != nil {
		return s.Default(), errors.Join(err, fallbackErr)
	}
	return domain.FlareContribution(domain.Tail(events, domain.FlareWindow)), nil
}

func (s *FlareSource) collectFrom(ctx context.Context, url string) ([]domain.FlareEvent, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	raw, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch flare catalog: %w", err)
	}
	return domain.DecodeFlares(raw)
}
