package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tacogips/stackforge/internal/config"
	"github.com/tacogips/stackforge/internal/stack"
)

var (
	versionShort bool
	versionJSON  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and built-in defaults",
	Long: `Print the stackforge build together with the defaults it falls back to when
neither .stackforge.yaml, STACKFORGE_* variables nor flags set them.

Examples:
  stackforge version
  stackforge version --short
  stackforge version --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildInfo()
		switch {
		case versionShort:
			fmt.Fprintln(stdout, info.Version)
		case versionJSON:
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode build info: %w", err)
			}
			fmt.Fprintln(stdout, string(data))
		default:
			printBuildInfo(info)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build info and defaults as JSON")
}

// BuildInfo describes the binary and the defaults compiled into it.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Platform  string `json:"platform"`
	Defaults  struct {
		ConfigFile     string `json:"config_file"`
		TemplatesDir   string `json:"templates_dir"`
		StackName      string `json:"stack_name"`
		DockerBin      string `json:"docker_bin"`
		HealthInterval string `json:"health_interval"`
		GraceChecks    int    `json:"grace_checks"`
		ReadyMarker    string `json:"ready_marker"`
	} `json:"defaults"`
}

func buildInfo() BuildInfo {
	d := config.DefaultOptions()
	info := BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		Platform:  fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
	info.Defaults.ConfigFile = config.DefaultConfigFile
	info.Defaults.TemplatesDir = d.TemplatesDir
	info.Defaults.StackName = d.StackName
	info.Defaults.DockerBin = d.DockerBin
	info.Defaults.HealthInterval = d.HealthInterval.String()
	info.Defaults.GraceChecks = d.GraceChecks
	info.Defaults.ReadyMarker = stack.MySQLReadyMarker
	return info
}

func printBuildInfo(info BuildInfo) {
	fmt.Fprintf(stdout, "stackforge %s (%s, built %s)\n", info.Version, info.Commit, info.BuildDate)
	fmt.Fprintf(stdout, "  %-16s %s\n", "platform", info.Platform)
	fmt.Fprintf(stdout, "  %-16s %s\n", "config file", info.Defaults.ConfigFile)
	fmt.Fprintf(stdout, "  %-16s %s\n", "templates", info.Defaults.TemplatesDir)
	fmt.Fprintf(stdout, "  %-16s %s (%s)\n", "stack", info.Defaults.StackName, info.Defaults.DockerBin)
	fmt.Fprintf(stdout, "  %-16s every %s, %d grace checks\n", "readiness", info.Defaults.HealthInterval, info.Defaults.GraceChecks)
}
