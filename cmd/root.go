package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bundlecache/bundlecache/pkg/collector"
	"github.com/bundlecache/bundlecache/pkg/phobia"
	"github.com/bundlecache/bundlecache/pkg/store"
	"github.com/bundlecache/bundlecache/pkg/suggestions"
)

var (
	dbPath       string
	toolCommand  string
	maxAgeDays   int
	packages     []string
	packagesFile string

	rootCmd = &cobra.Command{
		Use:   "bundlecache",
		Short: "Collect npm package size records into a local JSON database",
		Long: `bundlecache drives the bundle-phobia CLI over a list of npm packages and
persists the reported per-version gzip sizes into a JSON database. Packages
collected within the last week are skipped.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viper.SetEnvPrefix("BUNDLECACHE")
			viper.AutomaticEnv()
		},
		RunE:         runCollect,
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the JSON database (env BUNDLECACHE_DB)")
	rootCmd.Flags().StringVar(&toolCommand, "tool", "", "size-analysis command to invoke (env BUNDLECACHE_TOOL)")
	rootCmd.Flags().IntVar(&maxAgeDays, "max-age", 7, "days before a collected package goes stale")
	rootCmd.Flags().StringSliceVar(&packages, "packages", nil, "package names to collect instead of the built-in suggestions")
	rootCmd.Flags().StringVar(&packagesFile, "packages-file", "", "file with one package name per line")
}

func databasePath() string {
	if dbPath != "" {
		return dbPath
	}
	return viper.GetString("DB")
}

func collectList() ([]string, error) {
	if len(packages) > 0 {
		return packages, nil
	}
	if packagesFile != "" {
		return suggestions.FromFile(packagesFile)
	}
	return suggestions.List()
}

func runCollect(cmd *cobra.Command, args []string) error {
	names, err := collectList()
	if err != nil {
		return err
	}

	tool := toolCommand
	if tool == "" {
		tool = viper.GetString("TOOL")
	}

	st := store.New(databasePath())
	db, err := st.Load()
	if err != nil {
		return fmt.Errorf("cannot load database: %w", err)
	}

	col := collector.New(db, collector.Config{
		Runner: phobia.NewCLI(tool),
		Store:  st,
		MaxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
	})
	return col.Run(cmd.Context(), names)
}
