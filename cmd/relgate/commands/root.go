package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/relforge/relgate/internal/config"
	"github.com/relforge/relgate/pkg/version"
)

var (
	cfgFile string
	cfg     = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "relgate",
	Short: "Release quality gate and license attribution",
	Long: `relgate - the release gatekeeper

Sequences the release quality gates (format, lint, license policy,
attribution, tests) with fail-fast semantics, and packages the license
attributions for every third-party dependency into one reproducible archive.`,
	Version: version.Current,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default .relgate.yaml)")
	rootCmd.PersistentFlags().String("project-dir", cfg.ProjectDir, "Project root directory")
	rootCmd.PersistentFlags().String("sources", cfg.SourcesFile, "Attribution sources file")
	rootCmd.PersistentFlags().String("clarify", cfg.ClarifyFile, "License clarification file for the scanner")
	rootCmd.PersistentFlags().String("out", cfg.OutDir, "Output directory")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug logging")

	// Hidden Flags
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP trace endpoint")
	rootCmd.PersistentFlags().MarkHidden("otlp-endpoint")

	viper.BindPFlag("project_dir", rootCmd.PersistentFlags().Lookup("project-dir"))
	viper.BindPFlag("sources", rootCmd.PersistentFlags().Lookup("sources"))
	viper.BindPFlag("clarify", rootCmd.PersistentFlags().Lookup("clarify"))
	viper.BindPFlag("out_dir", rootCmd.PersistentFlags().Lookup("out"))
	viper.BindPFlag("otlp_endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderFutureGlassHelp(cmd)
	})
}

func initConfig() {
	defaults := config.Default()
	viper.SetDefault("scratch_dir", defaults.ScratchDir)
	viper.SetDefault("scanner_bin", defaults.ScannerBin)
	viper.SetDefault("spdx_data_dir", defaults.SPDXDataDir)
	viper.SetDefault("package_manager", defaults.PackageManager)
	viper.SetDefault("locked", defaults.Locked)
	viper.SetDefault("policy_rules", defaults.PolicyRulesFile)
	viper.SetDefault("dependency_inventory", defaults.DependencyInventory)
	viper.SetDefault("steps.format", defaults.Steps.Format)
	viper.SetDefault("steps.lint", defaults.Steps.Lint)
	viper.SetDefault("steps.unit_test", defaults.Steps.UnitTest)
	viper.SetDefault("steps.integration_test", defaults.Steps.IntegrationTest)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".relgate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("RELGATE")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Printf("[ERROR] Invalid configuration: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the engine logger: JSON to stderr, debug level when
// verbose, discard otherwise so the TUI stays clean.
func newLogger() *slog.Logger {
	if !cfg.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func renderFutureGlassHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("RELGATE %s", version.Current)))
	fmt.Println("Release quality gate + third-party license attribution.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
