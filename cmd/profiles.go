package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dayplan/config"
	"github.com/kilianp07/dayplan/core/factory"
	"github.com/kilianp07/dayplan/infra/costs"
)

var profilesDB string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage hourly cost profiles",
}

var profilesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import cost profiles from a YAML or JSON file into the SQLite provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesImport,
}

var profilesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cost profiles stored in the SQLite provider",
	RunE:  runProfilesLs,
}

func init() {
	profilesCmd.PersistentFlags().StringVar(&profilesDB, "db", "", "profile database (defaults to costs.conf.path)")
	profilesCmd.AddCommand(profilesImportCmd, profilesLsCmd)
	rootCmd.AddCommand(profilesCmd)
}

func openProfiles() (*costs.SQLiteProvider, error) {
	path := profilesDB
	if path == "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if cfg.Costs.Type != "sqlite" {
			return nil, fmt.Errorf("costs provider is %s, pass --db to select a profile database", cfg.Costs.Type)
		}
		var conf struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(cfg.Costs.Conf, &conf); err != nil {
			return nil, err
		}
		path = conf.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no profile database configured")
	}
	return costs.NewSQLiteProvider(path, 0)
}

func runProfilesImport(cmd *cobra.Command, args []string) error {
	profiles, err := costs.LoadProfiles(args[0])
	if err != nil {
		return err
	}
	p, err := openProfiles()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	if err := p.Import(cmd.Context(), profiles); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d profile(s)\n", len(profiles))
	return nil
}

func runProfilesLs(cmd *cobra.Command, args []string) error {
	p, err := openProfiles()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	profiles, err := p.Profiles(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tMIN\tMAX")
	for _, pr := range profiles {
		lo, hi := bounds(pr.Hourly)
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", pr.Category, lo, hi)
	}
	return tw.Flush()
}

func bounds(row []float64) (lo, hi float64) {
	for i, v := range row {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}
