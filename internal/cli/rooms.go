package cli

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairline/internal/signaling"
	"github.com/BioHazard786/pairline/internal/ui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List the relay's active rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rooms, err := NewAPI(cfg.BaseURL).Rooms(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(ui.RoomTableView(roomRows(rooms)))
		if len(rooms) > 0 {
			ui.PrintInfof("%d active room(s)", len(rooms))
		}
		return nil
	},
}

func roomRows(rooms []signaling.RoomInfo) []ui.RoomRow {
	return lo.Map(rooms, func(r signaling.RoomInfo, _ int) ui.RoomRow {
		return ui.RoomRow{
			ID:    r.ID,
			State: r.State,
			Members: lo.Map(r.Members, func(m signaling.MemberInfo, _ int) ui.MemberCell {
				return ui.MemberCell{Name: m.Name, Bot: m.Bot}
			}),
		}
	})
}
