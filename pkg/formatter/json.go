package formatter

import (
	"encoding/json"
	"io"
	"time"

	"github.com/bundlecache/bundlecache/pkg/github"
	"github.com/bundlecache/bundlecache/pkg/types"
)

// JSONFormatter formats the database as a machine-readable report. This is a
// derived view; the database file itself stays the canonical format.
type JSONFormatter struct {
	opts Options
}

// JSONOutput represents the JSON report structure.
type JSONOutput struct {
	Timestamp time.Time     `json:"timestamp"`
	Packages  []JSONPackage `json:"packages"`
}

// JSONPackage represents one package in the JSON report.
type JSONPackage struct {
	Name          string          `json:"name"`
	LatestVersion string          `json:"latest_version,omitempty"`
	GzipBytes     int64           `json:"gzip_bytes,omitempty"`
	Description   string          `json:"description,omitempty"`
	Repository    string          `json:"repository,omitempty"`
	Versions      []string        `json:"versions,omitempty"`
	Errored       bool            `json:"errored"`
	LastScraped   *time.Time      `json:"last_scraped,omitempty"`
	RepoStatus    *JSONRepoStatus `json:"repo_status,omitempty"`
}

// JSONRepoStatus represents enrichment data for one package.
type JSONRepoStatus struct {
	Exists     bool       `json:"exists"`
	IsArchived bool       `json:"is_archived"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	URL        string     `json:"url,omitempty"`
}

// Format writes the report in JSON format.
func (f *JSONFormatter) Format(w io.Writer, db types.Database, repoStatus map[string]*github.RepoInfo) error {
	packages := make([]JSONPackage, 0, len(db))
	for _, name := range db.Names() {
		entry := db[name]

		pkg := JSONPackage{
			Name:    name,
			Errored: entry.LastScraped.Errored,
		}
		if !entry.LastScraped.Errored {
			scraped := entry.LastScraped.Time()
			pkg.LastScraped = &scraped
		}
		if entry.Latest != nil {
			pkg.LatestVersion = entry.Latest.Version
			pkg.GzipBytes = entry.Latest.Gzip
			pkg.Description = entry.Latest.Description
			pkg.Repository = entry.Latest.Repository
		}
		if f.opts.Verbose {
			pkg.Versions = entry.Versions()
		}

		if status, ok := repoStatus[name]; ok {
			jsonStatus := &JSONRepoStatus{
				Exists:     status.Exists,
				IsArchived: status.IsArchived,
				URL:        status.URL,
			}
			if status.Exists {
				updated := status.UpdatedAt
				jsonStatus.UpdatedAt = &updated
			}
			pkg.RepoStatus = jsonStatus
		}

		packages = append(packages, pkg)
	}

	output := JSONOutput{
		Timestamp: time.Now(),
		Packages:  packages,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
