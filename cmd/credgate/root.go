package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "credgate.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "credgate",
		Short: "Gate HTTP requests on a client-credentials exchange",
		Long: `credgate reads client_id and client_secret request headers, exchanges
them at an identity provider's token endpoint, and forwards the request
upstream only when the exchange yields an access token. Everything else
gets a 403.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "credgate version %s\n" .Version}}`)

	root.AddCommand(newServeCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())
	return root
}
