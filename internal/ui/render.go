package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
	"github.com/ivankudzin/tgapp/guardian/internal/infra/telegram"
)

const (
	MaxListedSupervisors = 20
	MaxListedSpaces      = 20
	divider              = "━━━━━━━━━━━━━━"
)

// Screen is a message body with its inline keyboard.
type Screen struct {
	Text string
	Rows [][]telegram.InlineButton
}

type SupervisorEntry struct {
	ID   int64
	Name string
}

type SpaceEntry struct {
	ID         int64
	Title      string
	Accessible bool
}

func IntroScreen() Screen {
	return Screen{
		Text: IntroText,
		Rows: [][]telegram.InlineButton{
			{{Text: "ℹ About", Data: MainCallback(ActionAbout)}},
			{{Text: "📖 Help", Data: MainCallback(ActionHelp)}},
			{{Text: "⚙ Settings", Data: MainCallback(ActionNoAccess)}},
		},
	}
}

func InfoScreen(text string) Screen {
	return Screen{
		Text: text,
		Rows: [][]telegram.InlineButton{
			{{Text: "⬅ Back", Data: MainCallback(ActionBack)}},
		},
	}
}

func PanelLinkScreen(url string) Screen {
	return Screen{
		Text: PanelPromptText,
		Rows: [][]telegram.InlineButton{
			{{Text: "⚙ Open Settings Panel", URL: url}},
		},
	}
}

// SettingsScreen renders the space menu. Toggles are only offered to admins.
func SettingsScreen(title string, space model.Space, isAdmin bool) Screen {
	hitRun := onOff(space.AntiHitRun)
	maint := onOff(space.Maintenance)
	supCount := len(space.Supervisors)

	text := strings.Join([]string{
		fmt.Sprintf("⚙ <b>Settings for %s</b>", escape(title, "Unknown")),
		divider,
		"🔒 Anti Hit-and-Run: " + hitRun,
		"🛠 Maintenance: " + maint,
		fmt.Sprintf("👮 Supervisors: %d", supCount),
	}, "\n")

	rows := make([][]telegram.InlineButton, 0, 6)
	if isAdmin {
		rows = append(rows,
			[]telegram.InlineButton{{Text: "🔒 Anti Hit-and-Run: " + hitRun, Data: SpaceCallback(ActionToggleHitRun, space.ID)}},
			[]telegram.InlineButton{{Text: "🛠 Maintenance: " + maint, Data: SpaceCallback(ActionToggleMaint, space.ID)}},
		)
	}
	rows = append(rows,
		[]telegram.InlineButton{{Text: fmt.Sprintf("👮 Supervisors: %d", supCount), Data: SpaceCallback(ActionSupervisors, space.ID)}},
		[]telegram.InlineButton{{Text: "📊 Stats", Data: SpaceCallback(ActionStats, space.ID)}},
	)
	if isAdmin {
		rows = append(rows, []telegram.InlineButton{{Text: "📜 Log", Data: SpaceCallback(ActionLog, space.ID)}})
	}
	rows = append(rows, []telegram.InlineButton{{Text: "⬅ Back", Data: MainCallback(ActionBack)}})

	return Screen{Text: text, Rows: rows}
}

// SupervisorsScreen lists up to MaxListedSupervisors entries. total is the
// full count.
func SupervisorsScreen(spaceID int64, entries []SupervisorEntry, total int, canManage bool) Screen {
	rows := make([][]telegram.InlineButton, 0, len(entries)+2)
	if canManage {
		rows = append(rows, []telegram.InlineButton{{Text: "➕ Add Supervisor", Data: SpaceCallback(ActionAddSupervisor, spaceID)}})
	}
	for i, entry := range entries {
		if i >= MaxListedSupervisors {
			break
		}
		if canManage {
			rows = append(rows, []telegram.InlineButton{{
				Text: "❌ Remove " + supervisorName(entry),
				Data: TargetCallback(ActionRemoveSupervisor, spaceID, entry.ID),
			}})
		}
	}
	rows = append(rows, []telegram.InlineButton{{Text: "⬅ Back", Data: SpaceCallback(ActionMenu, spaceID)}})

	lines := []string{fmt.Sprintf("👮 <b>Supervisors (%d)</b>", total), ""}
	if !canManage {
		for i, entry := range entries {
			if i >= MaxListedSupervisors {
				break
			}
			lines = append(lines, "• "+html.EscapeString(supervisorName(entry)))
		}
		if len(entries) > 0 {
			lines = append(lines, "")
		}
	}
	lines = append(lines, "Supervisors can view stats only.")

	return Screen{Text: strings.Join(lines, "\n"), Rows: rows}
}

func StatsScreen(spaceID int64, stats model.Stats) Screen {
	text := strings.Join([]string{
		"📊 <b>Channel Stats</b>",
		divider,
		fmt.Sprintf("Joins: %d", stats.Joins),
		fmt.Sprintf("Bans: %d", stats.Bans),
		fmt.Sprintf("Maintenance hits: %d", stats.MaintenanceHits),
	}, "\n")
	return Screen{
		Text: text,
		Rows: [][]telegram.InlineButton{
			{{Text: "⬅ Back", Data: SpaceCallback(ActionMenu, spaceID)}},
		},
	}
}

func LogScreen(spaceID int64, entries []model.Audit) Screen {
	lines := []string{"📜 <b>Recent actions</b>", divider}
	if len(entries) == 0 {
		lines = append(lines, "No actions yet.")
	}
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s %s: %s",
			entry.CreatedAt.UTC().Format("2006-01-02 15:04"),
			entry.Action,
			html.EscapeString(entry.Detail),
		))
	}
	return Screen{
		Text: strings.Join(lines, "\n"),
		Rows: [][]telegram.InlineButton{
			{{Text: "⬅ Back", Data: SpaceCallback(ActionMenu, spaceID)}},
		},
	}
}

func OwnerScreen(stats model.GlobalStats) Screen {
	text := strings.Join([]string{
		"👑 <b>Owner Panel</b>",
		fmt.Sprintf("Total channels: %d", stats.Spaces),
		fmt.Sprintf("Total joins: %d", stats.Joins),
		fmt.Sprintf("Total bans: %d", stats.Bans),
		fmt.Sprintf("Maintenance hits: %d", stats.MaintenanceHits),
	}, "\n")
	return Screen{
		Text: text,
		Rows: [][]telegram.InlineButton{
			{{Text: "📋 List Channels", Data: OwnerCallback(ActionSpaces)}},
		},
	}
}

func SpaceListScreen(entries []SpaceEntry) Screen {
	lines := []string{"📋 <b>Connected Channels</b>", ""}
	if len(entries) == 0 {
		lines = append(lines, "No channels yet.")
	}
	for i, entry := range entries {
		if i >= MaxListedSpaces {
			break
		}
		if !entry.Accessible {
			lines = append(lines, fmt.Sprintf("• ID: %d (inaccessible)", entry.ID))
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s (ID: %d)", escape(entry.Title, "No title"), entry.ID))
	}
	return Screen{
		Text: strings.Join(lines, "\n"),
		Rows: [][]telegram.InlineButton{
			{{Text: "⬅ Back", Data: OwnerCallback(ActionBack)}},
		},
	}
}

func onOff(value bool) string {
	if value {
		return "ON"
	}
	return "OFF"
}

func escape(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	return html.EscapeString(value)
}

func supervisorName(entry SupervisorEntry) string {
	if name := strings.TrimSpace(entry.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%d", entry.ID)
}
