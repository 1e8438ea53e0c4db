// Package tui renders the record dashboard and terminal notifications.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/itt/pkg/core"
)

// RecordStore is the part of core.Store the dashboard needs.
type RecordStore interface {
	List(ctx context.Context) ([]core.Record, error)
	DeleteByID(ctx context.Context, id core.RecordID) error
}

type (
	recordsLoadedMsg struct {
		records []core.Record
		err     error
	}
	recordDeletedMsg struct {
		id  core.RecordID
		err error
	}
	slotChangedMsg struct {
		event core.Event
	}
)

const timeLayout = "2006-01-02 15:04"

var columns = []table.Column{
	{Title: "Customer", Width: 20},
	{Title: "Package", Width: 24},
	{Title: "Price", Width: 12},
	{Title: "Duration", Width: 12},
	{Title: "Hotel", Width: 18},
	{Title: "Updated", Width: 16},
}

// Dashboard is a bubbletea model listing the records of one store. When
// events is non-nil the list reloads whenever the slot changes.
type Dashboard struct {
	ctx     context.Context
	store   RecordStore
	events  <-chan core.Event
	table   table.Model
	records []core.Record
	status  string
	err     error
}

// NewDashboard creates the dashboard model.
func NewDashboard(ctx context.Context, store RecordStore, events <-chan core.Event) Dashboard {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF"))
	t.SetStyles(styles)

	return Dashboard{
		ctx:    ctx,
		store:  store,
		events: events,
		table:  t,
		status: "loading records...",
	}
}

func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForEvent())
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.status = "reloading..."
			return m, m.load()
		case "d":
			rec, ok := m.Selected()
			if !ok {
				return m, nil
			}
			m.status = fmt.Sprintf("deleting %s...", rec.Key())
			return m, m.delete(rec.ID)
		}

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(3, msg.Height-8))
		return m, nil

	case recordsLoadedMsg:
		m.err = msg.err
		if msg.err != nil {
			m.status = Failure("failed to load records: %v", msg.err)
			return m, nil
		}
		m.records = msg.records
		m.table.SetRows(rows(msg.records))
		if c := m.table.Cursor(); c >= len(msg.records) && len(msg.records) > 0 {
			m.table.SetCursor(len(msg.records) - 1)
		}
		m.status = fmt.Sprintf("%d records", len(msg.records))
		return m, nil

	case recordDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = Failure("failed to delete %s: %v", msg.id, msg.err)
			return m, nil
		}
		m.status = Success("deleted %s", msg.id)
		return m, m.load()

	case slotChangedMsg:
		m.status = Info("slot changed (%s), reloading", strings.ToLower(string(msg.event.Type)))
		return m, tea.Batch(m.load(), m.waitForEvent())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Dashboard) View() string {
	header := titleStyle.Render("ITT · customer packages")
	footer := hintStyle.Render("↑/↓ move · r reload · d delete · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		boxStyle.Render(m.table.View()),
		m.status,
		footer,
	) + "\n"
}

// Records returns the records currently displayed.
func (m Dashboard) Records() []core.Record {
	return m.records
}

// Selected returns the record under the cursor.
func (m Dashboard) Selected() (core.Record, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.records) {
		return core.Record{}, false
	}
	return m.records[c], true
}

// Err returns the last load or delete failure.
func (m Dashboard) Err() error {
	return m.err
}

func (m Dashboard) load() tea.Cmd {
	return func() tea.Msg {
		records, err := m.store.List(m.ctx)
		return recordsLoadedMsg{records: records, err: err}
	}
}

func (m Dashboard) delete(id core.RecordID) tea.Cmd {
	return func() tea.Msg {
		return recordDeletedMsg{id: id, err: m.store.DeleteByID(m.ctx, id)}
	}
}

func (m Dashboard) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return slotChangedMsg{event: e}
	}
}

func rows(records []core.Record) []table.Row {
	out := make([]table.Row, 0, len(records))
	for _, r := range records {
		updated := r.CreatedAt
		if r.UpdatedAt != nil {
			updated = *r.UpdatedAt
		}
		out = append(out, table.Row{
			r.CustomerName,
			r.PackageTitle,
			detail(r.PackageDetails, core.FieldPrice),
			detail(r.PackageDetails, core.FieldDuration),
			detail(r.HotelDetails, core.FieldHotelName),
			updated.Local().Format(timeLayout),
		})
	}
	return out
}

func detail(d core.Details, field string) string {
	if v, ok := d[field]; ok && v != "" {
		return v
	}
	return core.NotAvailable
}
