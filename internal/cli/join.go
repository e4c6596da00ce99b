package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairline/internal/participant"
	"github.com/BioHazard786/pairline/internal/signaling"
	"github.com/BioHazard786/pairline/internal/ui"
)

var (
	flagName string
	flagBot  bool
)

var joinCmd = &cobra.Command{
	Use:     "join <room>",
	Aliases: []string{"j"},
	Short:   "Join a room and chat with the other participant",
	Long: `Join a two-person room on the relay. The first participant waits; the
second one starts the WebRTC negotiation. A third participant is turned away.

Examples:
  pairline join lobby
  pairline join lobby --name Alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return joinRoom(ctx, args[0])
	},
}

func init() {
	joinCmd.Flags().StringVarP(&flagName, "name", "n", signaling.DefaultName, "display name")
	joinCmd.Flags().BoolVar(&flagBot, "bot", false, "announce this participant as a bot")
}

func joinRoom(ctx context.Context, room string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	fmt.Println()
	sp := ui.NewConnectionSpinner("Connecting to relay...")
	sp.Start()
	client := participant.NewClient(cfg.WebSocketURL, logger)
	if err := client.Connect(ctx); err != nil {
		sp.Error("Could not reach the relay")
		return err
	}
	defer client.Close()

	session := newChatSession(flagName, flagBot, cfg.ICEServers(), client, logger)
	if err := session.resetPeer(); err != nil {
		sp.Error("Could not create peer connection")
		return err
	}
	defer session.close()

	if err := client.Send(participant.Join(room, flagName, flagBot)); err != nil {
		sp.Error("Could not join")
		return err
	}

	// Hold the chat until the relay pairs us, replaying what arrived meanwhile.
	backlog, err := awaitPairing(ctx, client, sp, room)
	if err != nil {
		return err
	}

	model := ui.NewChatModel(room, flagName, session.send)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	session.setEmit(program.Send)

	go func() {
		for _, msg := range backlog {
			if !session.handle(msg) {
				return
			}
		}
		for msg := range client.Incoming() {
			if !session.handle(msg) {
				return
			}
		}
		program.Send(ui.EndMsg{Reason: "Disconnected from relay"})
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	_ = client.Send(participant.Leave())
	return nil
}

// awaitPairing waits for the relay to answer the join. It returns the
// messages that should be replayed into the chat.
func awaitPairing(ctx context.Context, client *participant.Client, sp *ui.Spinner, room string) ([]*participant.Message, error) {
	var backlog []*participant.Message
	for {
		select {
		case <-ctx.Done():
			sp.Stop()
			return nil, ctx.Err()

		case msg, ok := <-client.Incoming():
			if !ok {
				sp.Error("Disconnected from relay")
				return nil, participant.ErrClosed
			}
			backlog = append(backlog, msg)

			switch msg.Type {
			case participant.TypeFull:
				sp.Error(fmt.Sprintf("Room %s is full", room))
				return nil, participant.ErrRoomFull
			case participant.TypeWaiting:
				sp.UpdateMessage(fmt.Sprintf("%s Waiting for someone to join %s...", ui.IconWaiting, room))
			case participant.TypeInitiate, participant.TypePeerJoined:
				sp.Success(fmt.Sprintf("Joined %s", room))
				return backlog, nil
			}
		}
	}
}
