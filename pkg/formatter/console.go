package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bundlecache/bundlecache/pkg/github"
	"github.com/bundlecache/bundlecache/pkg/types"
)

// ConsoleFormatter formats the database for human-readable console display.
type ConsoleFormatter struct {
	opts Options
}

// Format writes one block per package, sorted by name.
func (f *ConsoleFormatter) Format(w io.Writer, db types.Database, repoStatus map[string]*github.RepoInfo) error {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, "Collected package sizes:")
	fmt.Fprintln(w, "========================")

	var totalRecords, errored int
	for _, name := range db.Names() {
		entry := db[name]
		totalRecords += len(entry.Records)

		fmt.Fprintf(w, "\n%s\n", name)
		if entry.Latest != nil {
			p.Fprintf(w, "  latest: %s (%d B gzipped)\n", entry.Latest.Version, entry.Latest.Gzip)
			if entry.Latest.Description != "" {
				fmt.Fprintf(w, "  %s\n", entry.Latest.Description)
			}
			if entry.Latest.Repository != "" {
				fmt.Fprintf(w, "  🔗 %s\n", entry.Latest.Repository)
			}
		}

		if entry.LastScraped.Errored {
			errored++
			fmt.Fprintln(w, "  ⚠️  last collection errored (will be retried)")
		} else {
			age := int(time.Since(entry.LastScraped.Time()).Hours() / 24)
			fmt.Fprintf(w, "  collected %d days ago, %d versions\n", age, len(entry.Records))
		}

		if f.opts.Verbose {
			for _, version := range entry.Versions() {
				record := entry.Records[version]
				p.Fprintf(w, "    %s: %d B gzipped\n", version, record.Gzip)
			}
		}

		if status, ok := repoStatus[name]; ok {
			fmt.Fprintf(w, "  repository: %s\n", describeRepo(status))
		}
	}

	fmt.Fprint(w, "\n"+strings.Repeat("=", 40)+"\n")
	p.Fprintf(w, "%d packages, %d records", len(db), totalRecords)
	if errored > 0 {
		p.Fprintf(w, ", %d errored", errored)
	}
	fmt.Fprintln(w)
	return nil
}

func describeRepo(info *github.RepoInfo) string {
	if !info.Exists {
		return "🚫 not found"
	}
	if info.IsArchived {
		return "📦 archived"
	}
	if !info.ActiveWithin(365 * 24 * time.Hour) {
		return "💤 inactive for over a year"
	}
	return "✅ active"
}
