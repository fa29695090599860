package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/mod/semver"
)

// PackageRecord holds one version's size metadata as reported by the
// size-analysis tool. Only these five fields are retained in the database;
// everything else the tool emits is dropped.
type PackageRecord struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Gzip        int64  `json:"gzip"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
}

// erroredScrape is the lastScraped value written when a collection attempt
// produced output that could not be fully parsed. Errored packages are
// retried on the next run regardless of the freshness window.
const erroredScrape = "Error"

// ScrapeTime is the per-package collection stamp: either milliseconds since
// the epoch, or the errored sentinel. It marshals to a JSON number or the
// string "Error" to stay compatible with the existing database files.
type ScrapeTime struct {
	Millis  int64
	Errored bool
}

// ScrapedAt returns a stamp for a successful collection at t.
func ScrapedAt(t time.Time) ScrapeTime {
	return ScrapeTime{Millis: t.UnixMilli()}
}

// ScrapeErrored returns the errored stamp.
func ScrapeErrored() ScrapeTime {
	return ScrapeTime{Errored: true}
}

// Time converts the stamp back to a time.Time. Only meaningful when the
// stamp is not errored.
func (s ScrapeTime) Time() time.Time {
	return time.UnixMilli(s.Millis)
}

func (s ScrapeTime) MarshalJSON() ([]byte, error) {
	if s.Errored {
		return json.Marshal(erroredScrape)
	}
	return json.Marshal(s.Millis)
}

func (s *ScrapeTime) UnmarshalJSON(data []byte) error {
	var millis int64
	if err := json.Unmarshal(data, &millis); err == nil {
		*s = ScrapeTime{Millis: millis}
		return nil
	}

	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err != nil {
		return fmt.Errorf("lastScraped must be a number or %q: %w", erroredScrape, err)
	}
	if sentinel != erroredScrape {
		return fmt.Errorf("unrecognized lastScraped value %q", sentinel)
	}
	*s = ScrapeTime{Errored: true}
	return nil
}

// Reserved keys inside an entry object. Every other key is a version.
const (
	latestKey      = "latest"
	lastScrapedKey = "lastScraped"
)

// Entry is the per-package database state: one record per collected version,
// the latest alias, and the collection stamp. On disk the version records
// are flattened into the entry object alongside "latest" and "lastScraped".
type Entry struct {
	Records     map[string]PackageRecord
	Latest      *PackageRecord
	LastScraped ScrapeTime
}

func (e Entry) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(e.Records)+2)
	for version, record := range e.Records {
		flat[version] = record
	}
	if e.Latest != nil {
		flat[latestKey] = *e.Latest
	}
	flat[lastScrapedKey] = e.LastScraped
	return json.Marshal(flat)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	e.Records = make(map[string]PackageRecord, len(flat))
	e.Latest = nil
	e.LastScraped = ScrapeTime{}

	for key, raw := range flat {
		switch key {
		case lastScrapedKey:
			if err := json.Unmarshal(raw, &e.LastScraped); err != nil {
				return err
			}
		case latestKey:
			var record PackageRecord
			if err := json.Unmarshal(raw, &record); err != nil {
				return fmt.Errorf("invalid latest record: %w", err)
			}
			e.Latest = &record
		default:
			var record PackageRecord
			if err := json.Unmarshal(raw, &record); err != nil {
				return fmt.Errorf("invalid record for version %q: %w", key, err)
			}
			e.Records[key] = record
		}
	}
	return nil
}

// Versions returns the entry's version keys ordered newest first. Keys that
// are not valid semantic versions sort after those that are.
func (e *Entry) Versions() []string {
	versions := make([]string, 0, len(e.Records))
	for version := range e.Records {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool {
		vi, vj := "v"+versions[i], "v"+versions[j]
		validI, validJ := semver.IsValid(vi), semver.IsValid(vj)
		if validI != validJ {
			return validI
		}
		if !validI {
			return versions[i] < versions[j]
		}
		return semver.Compare(vi, vj) > 0
	})
	return versions
}

// Database is the full persisted state, keyed by package name. It is loaded
// once at run start, owned by a single run loop, and written back once at
// run end.
type Database map[string]*Entry

// Names returns the package names in the database in sorted order.
func (db Database) Names() []string {
	names := make([]string, 0, len(db))
	for name := range db {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
