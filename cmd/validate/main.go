// Command validate performs integrity checks on a snapshot directory written
// by the space weather pipeline. It verifies that every document exists and
// parses, that each carries its required fields, that the stored
// classifications agree with the stored readings, and that the run status
// reports a successful run covering every document.
//
// Usage:
//
//	go run ./cmd/validate -dir ./data
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
)

// documentNames lists every document a completed run writes.
var documentNames = []string{
	domain.SnapshotNOAA,
	domain.SnapshotAurora,
	domain.SnapshotXray,
	domain.SnapshotDst,
	domain.SnapshotNews,
	domain.SnapshotMeteor,
	domain.SnapshotStatus,
}

// requiredFields maps object documents to the keys they must carry.
var requiredFields = map[string][]string{
	domain.SnapshotNOAA:   {"kpIndex", "solarWind", "solarFlares", "updated", "source"},
	domain.SnapshotAurora: {"forecast", "kpIndex", "level", "probability", "bestViewing", "updated", "source"},
	domain.SnapshotXray:   {"current", "numeric", "class", "description", "updated"},
	domain.SnapshotDst:    {"current", "stormLevel", "description", "updated"},
	domain.SnapshotMeteor: {"current", "max", "activity", "description", "showers", "activeShowers", "nextMajorShower", "updated"},
	domain.SnapshotStatus: {"lastUpdate", "status", "message", "dataSources", "degradedSources"},
}

var newsFields = []string{"title", "link", "date", "source", "summary"}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "snapshot directory written by the pipeline")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	fmt.Println("=== Space Weather Snapshot Validation ===")
	fmt.Println()

	docs, load := loadDocuments(dir)
	phases := []*phase{
		load,
		validateSchema(docs),
		validateClassification(docs),
		validateRunStatus(docs),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Documents: %d of %d loaded from %s\n", len(docs), len(documentNames), dir)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Presence ──
// Every document exists and is valid JSON.

func loadDocuments(dir string) (map[string]json.RawMessage, *phase) {
	p := &phase{name: "Phase 1: Presence (files parse as JSON)"}
	docs := make(map[string]json.RawMessage, len(documentNames))

	for _, name := range documentNames {
		path := filepath.Join(dir, name+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if !json.Valid(data) {
			p.errorf("%s: invalid JSON", name)
			continue
		}
		docs[name] = data
	}
	return docs, p
}

// ── Phase 2: Schema ──
// Every loaded document carries its required fields.

func validateSchema(docs map[string]json.RawMessage) *phase {
	p := &phase{name: "Phase 2: Schema (required fields)"}

	for _, name := range documentNames {
		raw, ok := docs[name]
		if !ok {
			continue
		}
		if name == domain.SnapshotNews {
			checkNews(p, raw)
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			p.errorf("%s: not a JSON object", name)
			continue
		}
		for _, key := range requiredFields[name] {
			if _, ok := obj[key]; !ok {
				p.errorf("%s: missing field %q", name, key)
			}
		}
	}
	return p
}

func checkNews(p *phase, raw json.RawMessage) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		p.errorf("%s: not a JSON array", domain.SnapshotNews)
		return
	}
	if len(items) > domain.NewsLimit {
		p.errorf("%s: %d items exceeds limit %d", domain.SnapshotNews, len(items), domain.NewsLimit)
	}
	for i, item := range items {
		for _, key := range newsFields {
			if _, ok := item[key]; !ok {
				p.errorf("%s[%d]: missing field %q", domain.SnapshotNews, i, key)
			}
		}
	}
}

// ── Phase 3: Classification ──
// Stored classifications agree with the stored readings.

func validateClassification(docs map[string]json.RawMessage) *phase {
	p := &phase{name: "Phase 3: Classification (derived values)"}

	var xray domain.XrayDocument
	if decode(p, docs, domain.SnapshotXray, &xray) {
		want := domain.ClassifyXray(xray.Numeric)
		if xray.Current != want.String() || xray.Class != want.Letter {
			p.errorf("%s: flux %g stored as %s (class %s), want %s", domain.SnapshotXray, xray.Numeric, xray.Current, xray.Class, want)
		}
	}

	var dst domain.DstDocument
	if decode(p, docs, domain.SnapshotDst, &dst) {
		if want := domain.ClassifyDst(dst.Current); dst.StormLevel != want {
			p.errorf("%s: dst %g stored as %s, want %s", domain.SnapshotDst, dst.Current, dst.StormLevel, want)
		}
	}

	var aurora domain.AuroraDocument
	if decode(p, docs, domain.SnapshotAurora, &aurora) {
		if want := domain.ClassifyAurora(aurora.KpIndex); aurora.Level != want {
			p.errorf("%s: kp %g stored as %s, want %s", domain.SnapshotAurora, aurora.KpIndex, aurora.Level, want)
		}
		if want := domain.AuroraProbability(aurora.KpIndex); aurora.Probability != want {
			p.errorf("%s: probability %q, want %q", domain.SnapshotAurora, aurora.Probability, want)
		}
	}

	var noaa domain.NOAADocument
	if decode(p, docs, domain.SnapshotNOAA, &noaa) {
		if len(noaa.KpIndex) > domain.KpWindow {
			p.errorf("%s: %d kp readings exceeds window %d", domain.SnapshotNOAA, len(noaa.KpIndex), domain.KpWindow)
		}
		if len(noaa.SolarFlares) > domain.FlareWindow {
			p.errorf("%s: %d flares exceeds window %d", domain.SnapshotNOAA, len(noaa.SolarFlares), domain.FlareWindow)
		}
		if n := len(noaa.KpIndex); n > 0 && noaa.KpIndex[n-1].Current() != aurora.KpIndex {
			p.errorf("%s: latest kp %g disagrees with %s kp %g", domain.SnapshotNOAA, noaa.KpIndex[n-1].Current(), domain.SnapshotAurora, aurora.KpIndex)
		}
	}

	var meteor domain.MeteorDocument
	if decode(p, docs, domain.SnapshotMeteor, &meteor) {
		if meteor.Max != domain.MaxMeteorLevel {
			p.errorf("%s: max %d, want %d", domain.SnapshotMeteor, meteor.Max, domain.MaxMeteorLevel)
		}
		if meteor.Current < 0 || meteor.Current > meteor.Max {
			p.errorf("%s: level %d outside 0..%d", domain.SnapshotMeteor, meteor.Current, meteor.Max)
		}
	}
	return p
}

// ── Phase 4: Run Status ──
// The status document reports success and every document belongs to that run.

func validateRunStatus(docs map[string]json.RawMessage) *phase {
	p := &phase{name: "Phase 4: Run Status (update-status)"}

	var status domain.RunStatus
	if !decode(p, docs, domain.SnapshotStatus, &status) {
		return p
	}
	if status.Status != domain.StatusSuccess {
		p.errorf("%s: status %q: %s", domain.SnapshotStatus, status.Status, status.Message)
	}
	if _, err := time.Parse(time.RFC3339, status.LastUpdate); err != nil {
		p.errorf("%s: lastUpdate %q is not RFC 3339", domain.SnapshotStatus, status.LastUpdate)
	}
	if len(status.DataSources) == 0 {
		p.errorf("%s: no data sources recorded", domain.SnapshotStatus)
	}
	if status.Status == domain.StatusSuccess && status.Metrics == nil {
		p.errorf("%s: successful run carries no metrics", domain.SnapshotStatus)
	}

	for _, name := range documentNames {
		if name == domain.SnapshotStatus || name == domain.SnapshotNews {
			continue
		}
		var doc struct {
			Updated string `json:"updated"`
		}
		if !decode(p, docs, name, &doc) {
			continue
		}
		if doc.Updated != status.LastUpdate {
			p.errorf("%s: updated %q does not match lastUpdate %q", name, doc.Updated, status.LastUpdate)
		}
	}
	return p
}

// decode unmarshals a loaded document. Missing documents were already
// reported in phase 1 and are skipped silently.
func decode(p *phase, docs map[string]json.RawMessage, name string, v any) bool {
	raw, ok := docs[name]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		p.errorf("%s: %v", name, err)
		return false
	}
	return true
}
