package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
)

// RoomRow is one room as listed by the relay.
type RoomRow struct {
	ID      string
	State   string
	Members []MemberCell
}

// MemberCell is one room member.
type MemberCell struct {
	Name string
	Bot  bool
}

func (m MemberCell) String() string {
	if m.Bot {
		return m.Name + " " + IconBot
	}
	return m.Name
}

// RoomTableView renders rooms as a table.
func RoomTableView(rooms []RoomRow) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}

	rows := lo.Map(rooms, func(r RoomRow, i int) []string {
		members := lo.Map(r.Members, func(m MemberCell, _ int) string { return m.String() })
		return []string{
			fmt.Sprintf("%d", i+1),
			truncate(r.ID, 40),
			r.State,
			strings.Join(members, ", "),
		}
	})

	return newTable([]string{"#", "Room", "State", "Members"}, rows).Render()
}

// BotTableView renders the rooms that currently host a bot.
func BotTableView(rooms []string) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active bots")
	}
	rows := lo.Map(rooms, func(r string, i int) []string {
		return []string{fmt.Sprintf("%d", i+1), truncate(r, 40)}
	})
	return newTable([]string{"#", "Room"}, rows).Render()
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
