package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rescp17/landrop/internal/style"
	"github.com/rescp17/landrop/internal/util"
	"github.com/rescp17/landrop/pkg/device"
	"github.com/rescp17/landrop/pkg/notify"
)

const (
	// chromeHeight is the rows taken by the header, tab bar and footer.
	chromeHeight = 8

	notificationWidth = 40
	maxNotifications  = 5
)

func deviceRow(d device.Device) table.Row {
	return table.Row{d.Name, d.Address(), d.DeviceType, d.OS, lastSeen(d)}
}

func lastSeen(d device.Device) string {
	if d.LastSeen == 0 {
		return "-"
	}
	age := time.Since(d.LastSeenTime())
	if age < time.Minute {
		return "just now"
	}
	return age.Truncate(time.Minute).String() + " ago"
}

// bodyWidth is what is left for the active tab beside the notification panel.
func (m model) bodyWidth() int {
	if m.width == 0 {
		return 80
	}
	if m.width >= 100 {
		return m.width - notificationWidth - 2
	}
	return m.width
}

func (m model) View() string {
	body := m.tabView()
	panel := m.notificationsView()

	var main string
	if m.width >= 100 || m.width == 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(m.bodyWidth()).Render(body), panel)
	} else {
		main = lipgloss.JoinVertical(lipgloss.Left, body, panel)
	}

	footer := m.help.View(tabKeys{keys: m.keys, tab: m.tab})
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), m.tabsView(), main, footer)
}

func (m model) headerView() string {
	title := style.TitleStyle.Render("landrop")

	self := style.HelpStyle.Render("identifying this device...")
	if m.hasLocal {
		self = fmt.Sprintf("%s (%s)", m.local.Name, m.local.Address())
	}

	status := style.StatusOffStyle.Render("discovery off")
	if m.discovery {
		status = style.StatusOnStyle.Render("discovery on")
	}
	if m.toggling {
		status = m.spinner.View() + " " + status
	}
	return title + "  " + self + "  " + status + "\n"
}

func (m model) tabsView() string {
	tabs := make([]string, 0, tabCount)
	for t := tabDevices; t < tabCount; t++ {
		if t == m.tab {
			tabs = append(tabs, style.ActiveTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, style.InactiveTabStyle.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}

func (m model) targetLine() string {
	target := m.target()
	if target == nil {
		return style.HelpStyle.Render("No target. Pick one on the Devices tab with enter.")
	}
	return "To: " + style.HighlightFontStyle.Render(target.Name) + " " + style.HelpStyle.Render(target.Address())
}

func (m model) tabView() string {
	switch m.tab {
	case tabText:
		var s strings.Builder
		s.WriteString(m.targetLine() + "\n\n")
		s.WriteString(m.textarea.View() + "\n")
		if m.sendingText {
			s.WriteString(m.spinner.View() + " sending...\n")
		}
		return s.String()

	case tabFiles:
		var s strings.Builder
		s.WriteString(m.targetLine() + "\n\n")
		if m.target() == nil {
			return s.String()
		}
		if m.sendingFile {
			s.WriteString(m.spinner.View() + " sending file...\n")
			return s.String()
		}
		s.WriteString(m.picker.View())
		return s.String()

	default:
		var s strings.Builder
		if len(m.devices) == 0 {
			if m.discovery {
				s.WriteString(m.spinner.View() + " Looking for devices...\n")
			} else {
				s.WriteString(style.HelpStyle.Render("Discovery is off. Press d to start it.") + "\n")
			}
			return s.String()
		}
		s.WriteString(style.BaseStyle.Render(m.table.View()) + "\n")
		s.WriteString(m.targetLine() + "\n")
		return s.String()
	}
}

func (m model) notificationsView() string {
	if len(m.notifications) == 0 {
		return ""
	}
	shown := m.notifications
	if len(shown) > maxNotifications {
		shown = shown[:maxNotifications]
	}

	inner := notificationWidth - 4
	boxes := make([]string, 0, len(shown))
	for _, n := range shown {
		title := style.NotificationTitle(n.Kind).Render(util.Fit(n.Title, inner))
		msg := lipgloss.NewStyle().Width(inner).Render(n.Message)
		boxes = append(boxes, style.Notification(n.Kind).Width(notificationWidth-2).Render(title+"\n"+msg))
	}
	if extra := len(m.notifications) - len(shown); extra > 0 {
		boxes = append(boxes, style.HelpStyle.Render(fmt.Sprintf("+%d more", extra)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

// kindLabel is the short tag used when notifications are printed as text.
func kindLabel(k notify.Kind) string {
	return strings.ToUpper(string(k))
}

// FormatNotification renders n on one line for non-interactive output.
func FormatNotification(n notify.Notification) string {
	return fmt.Sprintf("%s [%s] %s: %s", n.Timestamp.Format("15:04:05"), kindLabel(n.Kind), n.Title, n.Message)
}
