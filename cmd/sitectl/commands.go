package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sitecanvas/internal/config"
	models "sitecanvas/internal/domain/models/site"
	"sitecanvas/internal/repository/postgres"
	"sitecanvas/internal/seed"
)

var (
	resetSchema bool

	// active is the app opened for the running command
	active *app

	rootCmd = &cobra.Command{
		Use:   "sitectl",
		Short: "Operate a sitecanvas store from the command line",
		Long: `sitectl runs maintenance against the storage configured through the
same environment as the server (STORAGE_DRIVER, DATABASE_URL, BADGER_PATH).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["storage"] == "none" {
				return nil
			}
			_ = godotenv.Load()
			cfg := config.Load()

			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			active = a
			return nil
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations (postgres)",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the demo hero, features and footer sections when missing",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}

	sectionsCmd = &cobra.Command{
		Use:   "sections",
		Short: "List sections in page order",
		Args:  cobra.NoArgs,
		RunE:  runSections,
	}

	publishCmd = &cobra.Command{
		Use:   "publish [section id or slug]",
		Short: "Publish a section's draft",
		Args:  cobra.ExactArgs(1),
		RunE:  runPublish,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, sectionsCmd, publishCmd, backupCmd)

	migrateCmd.Flags().BoolVar(&resetSchema, "reset", false, "Roll every migration back first (drops all site tables)")
	migrateCmd.Annotations = map[string]string{"storage": "none"}
}

func appFrom(*cobra.Command) *app {
	return active
}

// execute runs the command tree and closes the storage it opened, error or not
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if active != nil {
		active.Close()
		active = nil
	}
	return err
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.StorageDriver != config.DriverPostgres {
		fmt.Fprintf(cmd.OutOrStdout(), "%s storage needs no migrations\n", cfg.StorageDriver)
		return nil
	}
	if resetSchema && cfg.Environment == "prod" {
		return fmt.Errorf("--reset is not allowed in prod")
	}

	ctx := cmd.Context()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if resetSchema {
		if err := postgres.ResetMigrations(ctx, pool, tables); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %s tables\n", cfg.TablePrefix)
	}
	if err := postgres.RunMigrations(ctx, pool, tables); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (prefix %q)\n", cfg.TablePrefix)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	result, err := seed.NewSeeder(a.services.Sections, a.logger).Seed(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", len(result.Created), len(result.Skipped))
	return nil
}

func runSections(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	sections, err := a.services.Sections.ListSections(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tSLUG\tENABLED\tID")
	for _, s := range sections {
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", s.SortOrder, s.Slug, s.IsEnabled, s.ID)
	}
	return w.Flush()
}

func runPublish(cmd *cobra.Command, args []string) error {
	ref, err := models.ParseRef(args[0])
	if err != nil {
		return err
	}
	version, err := appFrom(cmd).services.Versions.Publish(cmd.Context(), ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %s (version %s)\n", args[0], version.ID)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
