package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/report-atlas/pkg/server"
	"github.com/de-tools/report-atlas/pkg/services/catalog"
	"github.com/de-tools/report-atlas/pkg/services/config"
	"github.com/de-tools/report-atlas/pkg/services/job"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

var (
	cfgPath        string
	jobsDir        string
	catalogProfile string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the report preview server",
		RunE:  runServer,
	}

	defaultPath, err := config.DefaultProfilesPath()
	if err != nil {
		defaultPath = ""
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", defaultPath,
		"Path to the data source profiles file (default is $HOME/.reportatlascfg)")
	rootCmd.Flags().StringVar(&jobsDir, "jobs", "jobs", "Directory holding report job files")
	rootCmd.Flags().StringVar(&catalogProfile, "catalog-profile", "",
		"Profile of the entity catalog; enables /api/v1/tools")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	var registry config.Registry
	if _, err := os.Stat(cfgPath); err == nil {
		registry, err = config.NewRegistry(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to create profile registry: %w", err)
		}
		logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
		profiles, _ := registry.GetProfiles(ctx)
		for _, name := range profiles {
			logger.Info().Msgf("Profile: `%s`", name)
		}
	} else {
		logger.Warn().Str("path", cfgPath).Msg("no profiles file, SQL elements are unavailable")
	}

	deps := server.Dependencies{
		Previewer: job.NewPreviewer(jobsDir, job.NewRunner(registry)),
		Logger:    logger,
	}

	if catalogProfile != "" {
		if registry == nil {
			return fmt.Errorf("catalog profile %q needs a profiles file", catalogProfile)
		}
		profile, err := registry.GetProfile(ctx, catalogProfile)
		if err != nil {
			return err
		}
		db, err := sqlstore.Open(ctx, profile)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer db.Close()
		deps.Tools = catalog.NewExplorer(db, catalog.WithPlaceholder(profile.Placeholder))
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		return fmt.Errorf("missing SERVER_HOST or SERVER_PORT in the environment or .env file")
	}

	api := server.NewWebAPI(server.Config{
		Addr:         net.JoinHostPort(host, port),
		Dependencies: deps,
	})
	return api.Start()
}
