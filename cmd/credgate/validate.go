package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/credgate/config"
	"github.com/jonwraymond/credgate/secret"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := secret.NewDefaultResolver()
			defer func() { _ = resolver.Close() }()

			f, err := config.Load(cmd.Context(), configPath, resolver)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration OK\n")
			fmt.Fprintf(out, "  token endpoint: %s://%s%s (authority %s)\n", f.IdPScheme, f.IdPUpstream, f.IdPPath, f.IdPAuthority)
			fmt.Fprintf(out, "  credential headers: %s, %s\n", f.ClientIDHeader, f.ClientSecretHeader)
			fmt.Fprintf(out, "  response mode: %s, timeout: %s\n", f.ResponseMode, f.Timeout())
			fmt.Fprintf(out, "  upstream: %s\n", f.Upstream)
			fmt.Fprintf(out, "  listen: %s, admin: %s\n", f.Listen, f.AdminListen)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the configuration file")
	return cmd
}
