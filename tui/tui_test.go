// ABOUTME: Tests for the org chart TUI
// ABOUTME: Drives the model with key messages and checks the journal and the stored chart
package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
)

func setupTestService(t *testing.T) *directory.Service {
	t.Helper()
	store, err := db.OpenSQLiteStore(filepath.Join(t.TempDir(), "orgmap.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := directory.NewService(store, log)

	for _, p := range []models.Person{
		{Email: "ceo@x.io", Name: "Alice Chief", AccountID: "acct-1"},
		{Email: "mgr@x.io", Name: "Bob Manager", AccountID: "acct-1", ReportingTo: []string{"ceo@x.io"}},
		{Email: "ic@x.io", Name: "Carol Engineer", AccountID: "acct-1", ReportingTo: []string{"mgr@x.io"}},
	} {
		if _, err := svc.CreatePerson(context.Background(), p); err != nil {
			t.Fatalf("Failed to create %s: %v", p.Email, err)
		}
	}
	return svc
}

func newTestModel(t *testing.T) (Model, *directory.Service) {
	t.Helper()
	svc := setupTestService(t)
	m, err := NewModel(context.Background(), svc, "acct-1")
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m, svc
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(m Model, keys ...string) Model {
	for _, key := range keys {
		next, _ := m.Update(keyMsg(key))
		m = next.(Model)
	}
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m = press(m, string(r))
	}
	return m
}

func moveTo(t *testing.T, m Model, email, manager string) Model {
	t.Helper()
	next, _ := m.startMove(email)
	m = next.(Model)
	if m.viewMode != ViewMove {
		t.Fatalf("Expected move view, got %v", m.viewMode)
	}
	m.moveInput.SetValue("")
	m = typeText(m, manager)
	return press(m, "enter")
}

func TestListViewSearch(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()
	for _, name := range []string{"Alice Chief", "Bob Manager", "Carol Engineer"} {
		if !strings.Contains(view, name) {
			t.Errorf("List view should contain %s", name)
		}
	}

	m = press(m, "/")
	if !m.searching {
		t.Fatal("Expected search mode after /")
	}
	m = typeText(m, "car")
	m = press(m, "enter")

	persons := m.visiblePersons()
	if len(persons) != 1 || persons[0].Email != "ic@x.io" {
		t.Fatalf("Expected only Carol, got %v", persons)
	}

	m = press(m, "esc")
	if len(m.visiblePersons()) != 3 {
		t.Error("Esc should clear the search")
	}
}

func TestChartView(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "down", "down", "enter")
	if m.viewMode != ViewChart || m.focus != "ic@x.io" {
		t.Fatalf("Expected chart view for ic, got mode %v focus %s", m.viewMode, m.focus)
	}
	view := m.View()
	if !strings.Contains(view, "Alice Chief › Bob Manager") {
		t.Errorf("Chart view should show the manager chain, got:\n%s", view)
	}

	m = press(m, "up")
	if m.focus != "mgr@x.io" {
		t.Errorf("Up should focus the manager, got %s", m.focus)
	}
	if !strings.Contains(m.View(), "Carol Engineer (ic@x.io)") {
		t.Error("Chart view should list reports below the focus")
	}

	m = press(m, "esc")
	if m.viewMode != ViewList {
		t.Error("Esc should return to the list")
	}
}

func TestMoveQueuesInJournal(t *testing.T) {
	m, svc := newTestModel(t)

	m = moveTo(t, m, "ic@x.io", "ceo@x.io")
	if m.viewMode != ViewList {
		t.Fatalf("Accepted move should close the prompt, got %v", m.viewMode)
	}
	if m.journal.Len() != 1 {
		t.Fatalf("Expected 1 queued move, got %d", m.journal.Len())
	}
	if !strings.Contains(m.status, "Moved ic@x.io under ceo@x.io") {
		t.Errorf("Unexpected status %q", m.status)
	}

	stored, err := svc.GetPerson(context.Background(), "acct-1", "ic@x.io")
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if stored.Manager() != "mgr@x.io" {
		t.Error("Queued move should not be written before save")
	}

	m = press(m, "u")
	if m.journal.Len() != 0 {
		t.Error("Undo should drop the queued move")
	}
	m = press(m, "u")
	if m.status != "Nothing to undo" {
		t.Errorf("Unexpected status %q", m.status)
	}
}

func TestMoveRejectionShownInline(t *testing.T) {
	m, _ := newTestModel(t)

	m = moveTo(t, m, "ceo@x.io", "ic@x.io")
	if m.viewMode != ViewMove {
		t.Fatal("Rejected move should keep the prompt open")
	}
	if m.moveErr != "Circular dependency detected." {
		t.Errorf("Unexpected error %q", m.moveErr)
	}
	if !strings.Contains(m.View(), "Circular dependency detected.") {
		t.Error("Move view should show the rejection")
	}
	if m.journal.Len() != 0 {
		t.Error("Rejected move should not be recorded")
	}

	m = press(m, "q")
	if !strings.HasSuffix(m.moveInput.Value(), "q") {
		t.Error("q should be typed into the prompt, not quit")
	}
	m = press(m, "esc")
	if m.viewMode != ViewList {
		t.Error("Esc should cancel the move")
	}
}

func TestMoveByName(t *testing.T) {
	m, _ := newTestModel(t)

	m = moveTo(t, m, "ic@x.io", "alice chief")
	if m.journal.Len() != 1 || m.journal.Commands()[0].NewManager != "ceo@x.io" {
		t.Fatalf("Expected move under ceo, got %+v", m.journal.Commands())
	}
}

func TestSaveCommitsBatch(t *testing.T) {
	m, svc := newTestModel(t)

	m = press(m, "s")
	if m.status != "Nothing to save" {
		t.Errorf("Unexpected status %q", m.status)
	}

	m = moveTo(t, m, "ic@x.io", "ceo@x.io")
	m = press(m, "s")
	if m.viewMode != ViewConfirmSave {
		t.Fatalf("Expected save confirmation, got %v", m.viewMode)
	}
	if !strings.Contains(m.View(), "ic@x.io → ceo@x.io") {
		t.Error("Confirmation should list the queued move")
	}

	m = press(m, "y")
	if m.err != nil {
		t.Fatalf("Save failed: %v", m.err)
	}
	if m.journal.Len() != 0 {
		t.Error("Journal should be empty after save")
	}
	if !strings.HasPrefix(m.status, "Saved 3 record(s)") {
		t.Errorf("Unexpected status %q", m.status)
	}

	ceo, err := svc.GetPerson(context.Background(), "acct-1", "ceo@x.io")
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if !ceo.HasReportee("ic@x.io") {
		t.Error("Saved move should update the new manager's reportees")
	}
}

func TestSaveSkipsMovesThatCancelOut(t *testing.T) {
	m, _ := newTestModel(t)

	m = moveTo(t, m, "ic@x.io", "ceo@x.io")
	m = moveTo(t, m, "ic@x.io", "mgr@x.io")
	if m.journal.Len() != 2 {
		t.Fatalf("Expected 2 recorded moves, got %d", m.journal.Len())
	}

	m = press(m, "s")
	if m.viewMode == ViewConfirmSave {
		t.Fatal("Save confirmation should not open without pending changes")
	}
	if m.status != "Nothing to save" {
		t.Errorf("Unexpected status %q", m.status)
	}
	if m.err != nil {
		t.Errorf("Unexpected error: %v", m.err)
	}
}

func TestGraphView(t *testing.T) {
	m, _ := newTestModel(t)

	m.focus = "mgr@x.io"
	m.viewMode = ViewChart
	m = press(m, "g")
	if m.viewMode != ViewGraph {
		t.Fatalf("Expected graph view, got %v (err %v)", m.viewMode, m.err)
	}
	if !strings.Contains(m.graphDOT, "Bob Manager") {
		t.Error("Graph should contain the focus")
	}
	m = press(m, "esc")
	if m.viewMode != ViewChart {
		t.Error("Esc should return to the chart")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRunRequiresTerminal(t *testing.T) {
	if term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("running in a terminal")
	}
	if err := Run(context.Background(), setupTestService(t), "acct-1"); err != ErrNoTerminal {
		t.Errorf("Expected ErrNoTerminal, got %v", err)
	}
}
