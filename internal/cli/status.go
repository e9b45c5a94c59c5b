package cli

import (
	"github.com/spf13/cobra"
)

var statusFlags commandFlags

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the services of the stack",
	Long: `Show the services of the configured stack as reported by docker.

Examples:
  stackforge status
  stackforge status --stack mystack`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := statusFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		services, err := newApp(opts).Status(cmd.Context(), opts)
		if err != nil {
			return err
		}
		printServices(stdout, services)
		return nil
	},
}

func init() {
	statusFlags.addOptionFlags(statusCmd)
}
