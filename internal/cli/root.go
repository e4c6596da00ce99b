package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairline/internal/config"
	"github.com/BioHazard786/pairline/internal/ui"
	"github.com/BioHazard786/pairline/internal/version"
)

var (
	flagServer string
	flagSTUN   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pairline",
	Short: "Two-person chat rooms over WebRTC",
	Long: `pairline joins two-person rooms on a signaling relay, negotiates a direct
WebRTC connection with the other participant and chats over it. Rooms can be
paired with an automated responder bot.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "relay URL (env PAIRLINE_SERVER, default "+config.DefaultServer+")")
	rootCmd.PersistentFlags().StringVar(&flagSTUN, "stun", "", "STUN server (env STUN_SERVER)")

	rootCmd.AddCommand(joinCmd, botCmd, roomsCmd, versionCmd)
}

func loadConfig() (*config.Client, error) {
	return config.LoadClient(config.ClientOptions{
		Server:     flagServer,
		STUNServer: flagSTUN,
	})
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}
