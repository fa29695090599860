package formatter

import (
	"fmt"
	"io"

	"github.com/bundlecache/bundlecache/pkg/github"
	"github.com/bundlecache/bundlecache/pkg/types"
)

// Formatter defines the interface for report output formatters.
type Formatter interface {
	// Format writes the database to output in the specific format.
	// repoStatus, when non-nil, maps package names to enrichment data.
	Format(w io.Writer, db types.Database, repoStatus map[string]*github.RepoInfo) error
}

// Options holds configuration options for formatters.
type Options struct {
	// Verbose lists every collected version instead of just the latest.
	Verbose bool
}

// New creates a formatter based on the format string.
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case "console", "":
		return &ConsoleFormatter{opts: opts}, nil
	case "json":
		return &JSONFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
