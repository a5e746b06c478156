package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the coxbazar-mcp application
var rootCmd = &cobra.Command{
	Use:   "coxbazar-mcp",
	Short: "Cox's Bazar travel planning MCP server with GitHub OAuth",
	Long: `coxbazar-mcp is a Model Context Protocol server that provides travel
planning tools for Cox's Bazar, Bangladesh: weather forecasts, day-by-day
itineraries, and activity suggestions.

Protected tools require a GitHub login. The server runs its own OAuth
authorization-code flow and hands out in-memory session IDs; the GitHub
access token never leaves the server.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "coxbazar-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
