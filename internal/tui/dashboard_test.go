package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/pkg/adapters/memory"
	"github.com/aretw0/itt/pkg/core"
)

func seededStore(t *testing.T) *core.Store {
	t.Helper()
	store := core.NewStore(memory.New())
	ctx := context.Background()
	for _, in := range []core.UpsertInput{
		{CustomerName: "Alice", PackageTitle: "Dubai 5N", PackageDetails: core.Details{core.FieldPrice: "$1,200"}},
		{CustomerName: "Bob", PackageTitle: "Bali 3N"},
	} {
		_, err := store.Upsert(ctx, in)
		require.NoError(t, err)
	}
	return store
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Dashboard, cmd tea.Cmd) Dashboard {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Dashboard)
}

func TestDashboard_Load(t *testing.T) {
	store := seededStore(t)
	m := NewDashboard(context.Background(), store, nil)

	m = run(t, m, m.load())
	require.Len(t, m.Records(), 2)
	assert.Equal(t, "2 records", m.status)

	view := m.View()
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "$1,200")
	assert.Contains(t, view, core.NotAvailable)

	rec, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "Alice", rec.CustomerName)
}

func TestDashboard_Delete(t *testing.T) {
	store := seededStore(t)
	m := NewDashboard(context.Background(), store, nil)
	m = run(t, m, m.load())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = next.(Dashboard)
	assert.True(t, strings.HasPrefix(m.status, "deleting Alice/Dubai 5N"))

	// The delete result triggers a reload.
	next, reload := m.Update(cmd())
	m = next.(Dashboard)
	m = run(t, m, reload)

	require.Len(t, m.Records(), 1)
	assert.Equal(t, "Bob", m.Records()[0].CustomerName)
}

type failingStore struct{}

func (failingStore) List(context.Context) ([]core.Record, error) {
	return nil, errors.New("disk unplugged")
}

func (failingStore) DeleteByID(context.Context, core.RecordID) error { return nil }

func TestDashboard_LoadError(t *testing.T) {
	m := NewDashboard(context.Background(), failingStore{}, nil)
	m = run(t, m, m.load())

	assert.Error(t, m.Err())
	assert.Contains(t, m.View(), "disk unplugged")

	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestDashboard_SlotEvents(t *testing.T) {
	store := seededStore(t)
	events := make(chan core.Event, 1)
	m := NewDashboard(context.Background(), store, events)

	events <- core.Event{Type: core.EventModify, Key: core.DefaultKey}
	wait := m.waitForEvent()
	require.NotNil(t, wait)

	done := make(chan tea.Msg, 1)
	go func() { done <- wait() }()

	select {
	case msg := <-done:
		_, ok := msg.(slotChangedMsg)
		assert.True(t, ok)
		next, cmd := m.Update(msg)
		assert.NotNil(t, cmd)
		assert.Contains(t, next.(Dashboard).status, "slot changed")
	case <-time.After(2 * time.Second):
		t.Fatal("no slot event")
	}

	assert.Nil(t, NewDashboard(context.Background(), store, nil).waitForEvent())
}

func TestDashboard_Quit(t *testing.T) {
	m := NewDashboard(context.Background(), seededStore(t), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestNotifications(t *testing.T) {
	assert.Contains(t, Success("saved %s", "Alice"), "saved Alice")
	assert.Contains(t, Info("editing %s", "Alice"), "editing Alice")
	assert.Contains(t, Failure("failed"), "failed")
}
