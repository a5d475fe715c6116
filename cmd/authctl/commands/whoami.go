package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func whoamiCmd(a *app) *cobra.Command {
	var output string
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in identity",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}

			var v any = a.coordinator.State().Identity
			if remote {
				user, err := a.coordinator.Client().Me(cmd.Context())
				if err != nil {
					return err
				}
				v = user
			}
			return encode(cmd.OutOrStdout(), output, v)
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the API instead of decoding the stored token")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
