package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairline/internal/ui"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Manage responder bots on the relay",
}

var botStartCmd = &cobra.Command{
	Use:   "start <room>",
	Short: "Add a responder bot to a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reply, err := NewAPI(cfg.BaseURL).StartBot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		reportBotReply(reply)
		return nil
	},
}

var botStopCmd = &cobra.Command{
	Use:   "stop <room>",
	Short: "Remove the responder bot from a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reply, err := NewAPI(cfg.BaseURL).StopBot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		reportBotReply(reply)
		return nil
	},
}

var botListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List rooms with an active bot",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rooms, err := NewAPI(cfg.BaseURL).Bots(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(ui.BotTableView(rooms))
		return nil
	},
}

// reportBotReply prints a request that changed nothing as a warning.
func reportBotReply(reply *BotReply) {
	if !reply.Changed {
		ui.PrintWarning(fmt.Sprintf("%s (%s)", reply.Message, reply.RoomID))
		return
	}
	ui.PrintSuccessf("%s (%s)", reply.Message, reply.RoomID)
}

func init() {
	botCmd.AddCommand(botStartCmd, botStopCmd, botListCmd)
}
