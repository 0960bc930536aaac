package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jlais/visiondemo/internal/ui"
	"github.com/jlais/visiondemo/internal/version"
)

var flagConfigFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "visiondemo",
	Short: "Terminal client for the JLAIS vision assistant on LiveKit",
	Long: `visiondemo joins a LiveKit room and talks to the JLAIS AI assistant.

It fetches connection details from a LiveKit Cloud sandbox, a self-hosted
token endpoint or a local API key pair, joins the room, optionally publishes
a camera and microphone file, and shows the assistant and chat transcript in
an interactive terminal shell.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "YAML config file")
}
