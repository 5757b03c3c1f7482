// Package engramcmder
package engramcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	configcmder "github.com/engramhq/engram/cmd/engram/config"
	searchcmder "github.com/engramhq/engram/cmd/engram/search"
	servecmder "github.com/engramhq/engram/cmd/engram/serve"
	"github.com/engramhq/engram/pkg/utils"
)

const engramLongDesc string = `Engram is a knowledge-graph memory server for agents.

Run the server with:
  engram serve         Run the API and MCP server

Query it with:
  engram search        Search stored memories from the command line`

const engramShortDesc string = "Engram - Agent Memory"

func NewEngramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engram",
		Short: engramShortDesc,
		Long:  engramLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .engram/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("engram %s (%s) built %s\n", utils.Version, utils.Sha, utils.Buildtime)
		},
	}
}
