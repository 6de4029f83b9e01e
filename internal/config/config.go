package config

import (
	"path/filepath"
)

// Config carries everything the gate and the attribution pipeline need.
// The original tooling leaned on fixed environment variables for the
// toolchain home and mounted source root; here everything is explicit and
// passed in at construction time, with defaults supplied from the caller's
// environment via viper.
type Config struct {
	// ProjectDir is the root of the project under release.
	ProjectDir string `mapstructure:"project_dir"`
	// SourcesFile lists the project and the vendored sources to attribute.
	SourcesFile string `mapstructure:"sources"`
	// ClarifyFile resolves ambiguous license declarations for the scanner.
	ClarifyFile string `mapstructure:"clarify"`
	// OutDir receives the archive, reports and staging tree.
	OutDir string `mapstructure:"out_dir"`
	// ScratchDir is the parent for clone scratch directories; empty means
	// the system temp dir.
	ScratchDir string `mapstructure:"scratch_dir"`

	// ScannerBin is the external license scanner executable.
	ScannerBin string `mapstructure:"scanner_bin"`
	// SPDXDataDir is handed to the scanner verbatim.
	SPDXDataDir string `mapstructure:"spdx_data_dir"`
	// PackageManager is the scanner's mode keyword.
	PackageManager string `mapstructure:"package_manager"`
	// Locked makes the scanner require an up-to-date lockfile.
	Locked bool `mapstructure:"locked"`

	// PolicyRulesFile holds the CEL license policy rules.
	PolicyRulesFile string `mapstructure:"policy_rules"`
	// DependencyInventory is the dependency list the policy rules run over.
	DependencyInventory string `mapstructure:"dependency_inventory"`

	Steps StepCommands `mapstructure:"steps"`

	Verbose  bool `mapstructure:"verbose"`
	Headless bool `mapstructure:"headless"`

	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// StepCommands configures the external commands behind the black-box gates.
type StepCommands struct {
	Format          []string `mapstructure:"format"`
	Lint            []string `mapstructure:"lint"`
	UnitTest        []string `mapstructure:"unit_test"`
	IntegrationTest []string `mapstructure:"integration_test"`
}

// Default returns the configuration for a cargo workspace released from the
// current directory.
func Default() Config {
	return Config{
		ProjectDir:          ".",
		SourcesFile:         "attribution-sources.yaml",
		ClarifyFile:         "clarify.toml",
		OutDir:              "relgate-out",
		ScannerBin:          "license-scan",
		SPDXDataDir:         "/usr/libexec/tools/spdx-data",
		PackageManager:      "cargo",
		Locked:              true,
		PolicyRulesFile:     "license-policy.yaml",
		DependencyInventory: "relgate-out/dependencies.yaml",
		Steps: StepCommands{
			Format:          []string{"cargo", "fmt", "--check"},
			Lint:            []string{"cargo", "clippy", "--locked", "--", "-D", "warnings"},
			UnitTest:        []string{"cargo", "test", "--locked"},
			IntegrationTest: []string{"cargo", "test", "--locked", "--", "--ignored"},
		},
	}
}

// StagingRoot is the staging tree location inside the output dir. The
// basename becomes the archive's stable top-level entry name.
func (c *Config) StagingRoot() string {
	return filepath.Join(c.OutDir, "attributions")
}

// ArchivePath is the fixed, well-known output path of the attribution
// archive.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.OutDir, "attributions.tar.gz")
}

// ReportPath returns the run report location for the given extension.
func (c *Config) ReportPath(ext string) string {
	return filepath.Join(c.OutDir, "check_report."+ext)
}
