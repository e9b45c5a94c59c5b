package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	patchFlags   commandFlags
	sectionFlags commandFlags
	renderFlags  commandFlags

	sectionRaw bool
)

var patchCmd = &cobra.Command{
	Use:   "patch <spec-file>",
	Short: "Apply regex patches listed in a YAML file",
	Long: `Apply the patches listed in a YAML file, in order. Each patch replaces the
first match of its tag unless "all" is set. The first unreadable file stops
the run; earlier patches stay applied.

Spec file format:
  patches:
    - file: docker-compose.yml
      tag: '"80:80"'
      literal: true
      replace: '"8080:80"'
    - file: config/local.js
      tag: 'port: \d+'
      template: port.tmpl
      log: port updated

Examples:
  stackforge patch patches.yml
  stackforge patch patches.yml --set http_port=8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := patchFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		return newApp(opts).Patch(cmd.Context(), opts, args[0])
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section <file> <name> <value>",
	Short: "Replace a named section of a config module",
	Long: `Replace the object of a section delimited as

  name: { ... }, /* end name */

with value, given as JSON or YAML. Nested braces in the old body are handled.
With --raw the value is a JavaScript object literal written as is.

Examples:
  stackforge section config/local.js bot_manager '{"enable": true}'
  stackforge section config/local.js bot_manager '{ enable: true }' --raw`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := sectionFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		if sectionRaw {
			return newApp(opts).SetSectionRaw(cmd.Context(), args[0], args[1], args[2])
		}
		return newApp(opts).SetSection(cmd.Context(), args[0], args[1], args[2])
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <template-file>",
	Short: "Render a template file to stdout",
	Long: `Render a template file with the configured answers. <%= key %> inserts an
answer; any other expression is evaluated with the sprig function library.

Examples:
  stackforge render templates/setup/nginx/default.conf --set domain=example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := renderFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		out, err := newApp(opts).Render(opts, args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, out)
		return nil
	},
}

func init() {
	patchFlags.addOptionFlags(patchCmd)
	sectionFlags.addOptionFlags(sectionCmd)
	sectionCmd.Flags().BoolVar(&sectionRaw, "raw", false, "Write value verbatim as a JavaScript object literal")
	renderFlags.addOptionFlags(renderCmd)
}
