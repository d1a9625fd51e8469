// Package tui provides the terminal interface for running a name
// tournament: a comparison screen for voting, a live ranking view, and
// export from inside the session. Screens plug into the application
// through a small Screen interface and share one tournament controller.
package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/nameduel/pkg/journal"
	"github.com/pashagolub/nameduel/pkg/tournament"
)

// ScreenType identifies the registered screens
type ScreenType int

const (
	ScreenCompare ScreenType = iota
	ScreenRanking
)

// String returns the page name for a screen type
func (s ScreenType) String() string {
	switch s {
	case ScreenCompare:
		return "compare"
	case ScreenRanking:
		return "ranking"
	default:
		return "unknown"
	}
}

// Screen is the contract every TUI screen implements
type Screen interface {
	Primitive() tview.Primitive
	Refresh()
	Title() string
}

// KeyBinding maps one keystroke to an application action
type KeyBinding struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func(app *App)
}

// App is the main TUI application: a header, the screen pages, and a
// footer listing shortcuts. All tournament mutations go through the
// shared controller; screens re-render from its snapshots.
type App struct {
	mu        sync.RWMutex
	tviewApp  *tview.Application
	pages     *tview.Pages
	header    *tview.TextView
	footer    *tview.TextView
	ctrl      *tournament.Controller
	exporter  *journal.Exporter
	exportDir string
	screens   map[ScreenType]Screen
	current   ScreenType
	bindings  []KeyBinding
}

// NewApp builds the application shell around a controller. Screens are
// registered separately so tests can drive the app without them.
func NewApp(ctrl *tournament.Controller, exportDir string) (*App, error) {
	if ctrl == nil {
		return nil, errors.New("controller is required")
	}

	app := &App{
		tviewApp:  tview.NewApplication(),
		pages:     tview.NewPages(),
		header:    tview.NewTextView().SetDynamicColors(true),
		footer:    tview.NewTextView().SetDynamicColors(true),
		ctrl:      ctrl,
		exporter:  journal.NewExporter(),
		exportDir: exportDir,
		screens:   make(map[ScreenType]Screen),
		current:   ScreenCompare,
	}

	app.bindings = []KeyBinding{
		{Key: tcell.KeyCtrlC, Description: "quit", Handler: func(a *App) { a.Quit() }},
		{Key: tcell.KeyRune, Rune: 'q', Description: "quit", Handler: func(a *App) { a.Quit() }},
		{Key: tcell.KeyRune, Rune: 'c', Description: "compare", Handler: func(a *App) { a.NavigateTo(ScreenCompare) }},
		{Key: tcell.KeyRune, Rune: 'r', Description: "ranking", Handler: func(a *App) { a.NavigateTo(ScreenRanking) }},
		{Key: tcell.KeyRune, Rune: 'e', Description: "export", Handler: func(a *App) { a.Export() }},
	}

	app.setupLayout()
	return app, nil
}

func (a *App) setupLayout() {
	a.header.SetBorder(true).SetTitleAlign(tview.AlignCenter)
	a.footer.SetBorder(true)
	a.footer.SetText(a.shortcutLine())

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.footer, 3, 0, false)

	layout.SetInputCapture(a.handleGlobalInput)
	a.tviewApp.SetRoot(layout, true)
}

// RegisterScreen adds a screen to the page stack
func (a *App) RegisterScreen(screenType ScreenType, screen Screen) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.screens[screenType] = screen
	a.pages.AddPage(screenType.String(), screen.Primitive(), true, false)
}

// NavigateTo switches pages and refreshes the target screen
func (a *App) NavigateTo(screenType ScreenType) {
	a.mu.Lock()
	screen, ok := a.screens[screenType]
	if !ok {
		a.mu.Unlock()
		return
	}
	a.current = screenType
	a.mu.Unlock()

	screen.Refresh()
	a.pages.SwitchToPage(screenType.String())
	a.updateHeader()
}

// CurrentScreen reports which screen is showing
func (a *App) CurrentScreen() ScreenType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Controller exposes the shared tournament controller to screens
func (a *App) Controller() *tournament.Controller {
	return a.ctrl
}

// Export writes the current ranking to a timestamped file in the
// session's configured format
func (a *App) Export() {
	session := a.ctrl.Session()
	snapshot := a.ctrl.Summarize()

	ext := strings.ToLower(session.Config.Export.Format)
	if ext == "" {
		ext = "csv"
	}
	name := fmt.Sprintf("%s_%s.%s", session.ID, time.Now().UTC().Format("20060102_150405"), ext)
	path := filepath.Join(a.exportDir, name)

	if err := a.exporter.ExportToFile(session, snapshot, path); err != nil {
		a.Flash(fmt.Sprintf("export failed: %v", err))
		return
	}
	a.Flash("exported " + path)
}

// Flash puts a transient message in the header
func (a *App) Flash(message string) {
	a.header.SetText(a.headerLine() + "  [yellow]" + tview.Escape(message) + "[-]")
}

// Quit stops the application
func (a *App) Quit() {
	a.tviewApp.Stop()
}

// Run starts the event loop on the comparison screen
func (a *App) Run() error {
	a.NavigateTo(ScreenCompare)
	return a.tviewApp.Run()
}

// TView exposes the underlying tview application for embedding and tests
func (a *App) TView() *tview.Application {
	return a.tviewApp
}

func (a *App) updateHeader() {
	a.header.SetText(a.headerLine())
}

func (a *App) headerLine() string {
	session := a.ctrl.Session()
	played, total := a.ctrl.Progress()
	return fmt.Sprintf("[::b]%s[-:-:-]  %s  %d/%d matches",
		tview.Escape(session.Title), session.Status, played, total)
}

func (a *App) shortcutLine() string {
	parts := make([]string, 0, len(a.bindings))
	for _, b := range a.bindings {
		label := string(b.Rune)
		if b.Key == tcell.KeyCtrlC {
			label = "^C"
		}
		parts = append(parts, fmt.Sprintf("[::b]%s[-:-:-] %s", label, b.Description))
	}
	return strings.Join(parts, "   ")
}

func (a *App) handleGlobalInput(event *tcell.EventKey) *tcell.EventKey {
	for _, binding := range a.bindings {
		if (binding.Key != tcell.KeyRune && event.Key() == binding.Key) ||
			(binding.Key == tcell.KeyRune && event.Key() == tcell.KeyRune && event.Rune() == binding.Rune) {
			binding.Handler(a)
			return nil
		}
	}
	return event
}
