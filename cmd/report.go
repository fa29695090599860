package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bundlecache/bundlecache/pkg/formatter"
	"github.com/bundlecache/bundlecache/pkg/github"
	"github.com/bundlecache/bundlecache/pkg/store"
	"github.com/bundlecache/bundlecache/pkg/types"
)

var (
	reportFormat string
	verbose      bool
	enrich       bool
	token        string

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Render the collected database without modifying it",
		RunE:  runReport,
	}
)

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "console", "output format: console or json")
	reportCmd.Flags().BoolVar(&verbose, "verbose", false, "list every collected version")
	reportCmd.Flags().BoolVar(&enrich, "enrich", false, "look up repository status on GitHub")
	reportCmd.Flags().StringVar(&token, "token", "", "GitHub token for --enrich (env BUNDLECACHE_TOKEN or GITHUB_TOKEN)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	st := store.New(databasePath())
	db, err := st.Load()
	if err != nil {
		return fmt.Errorf("cannot load database: %w", err)
	}

	var repoStatus map[string]*github.RepoInfo
	if enrich {
		repoStatus, err = enrichRepositories(cmd, db)
		if err != nil {
			return err
		}
	}

	f, err := formatter.New(reportFormat, formatter.Options{Verbose: verbose})
	if err != nil {
		return err
	}
	return f.Format(os.Stdout, db, repoStatus)
}

// enrichRepositories resolves each package's repository field to live GitHub
// status. Failures for individual packages are logged and skipped so one bad
// repository URL cannot sink the report.
func enrichRepositories(cmd *cobra.Command, db types.Database) (map[string]*github.RepoInfo, error) {
	if token == "" {
		token = viper.GetString("TOKEN")
	}
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	client, err := github.NewClient(token)
	if err != nil {
		return nil, err
	}

	repoStatus := make(map[string]*github.RepoInfo)
	for _, name := range db.Names() {
		entry := db[name]
		if entry.Latest == nil || entry.Latest.Repository == "" {
			continue
		}

		owner, repo, err := github.ParseRepositoryURL(entry.Latest.Repository)
		if err != nil {
			logrus.Debugf("skipping %s: %v", name, err)
			continue
		}

		info, err := client.GetRepositoryInfo(cmd.Context(), owner, repo)
		if err != nil {
			logrus.Warnf("could not fetch repository status for %s: %v", name, err)
			continue
		}
		repoStatus[name] = info
	}
	return repoStatus, nil
}
