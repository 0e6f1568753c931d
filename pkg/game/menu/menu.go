// Package menu provides a generic menu system drawn on a puzzle surface.
package menu

import (
	engineinput "heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// MenuItem represents a single item in a menu.
type MenuItem interface {
	// GetLabel returns the display label for this menu item.
	GetLabel() string
	// IsSelectable returns whether this item can be selected.
	IsSelectable() bool
	// GetHelpText returns optional help text for this item.
	GetHelpText() string
}

// MenuHandler handles menu item selection and activation.
type MenuHandler interface {
	// OnSelect is called when an item is selected (navigated to).
	OnSelect(item MenuItem, index int)

	// OnActivate is called when an item is activated (e.g., Enter pressed).
	// Returns true if the menu should close, and any help text to display.
	OnActivate(item MenuItem, index int) (shouldClose bool, helpText string)
	// OnExit is called when the menu is exited.
	OnExit()
	// GetTitle returns the menu title.
	GetTitle() string
	// GetInstructions returns the menu instructions.
	GetInstructions(selected MenuItem) string
}

// DynamicMenuHandler extends MenuHandler with dynamic menu items.
// The menu calls GetMenuItems after every intent so its content can change.
type DynamicMenuHandler interface {
	MenuHandler
	GetMenuItems() []MenuItem
}

// Menu is one open menu. It is driven by intents and draws itself on a surface; every method
// must run on the game loop.
type Menu struct {
	surface  puzzle.Surface
	handler  MenuHandler
	items    []MenuItem
	selected int
	helpText string
	closed   bool
}

// New opens a menu over items. A DynamicMenuHandler supplies its own items and items may be nil.
func New(surface puzzle.Surface, items []MenuItem, handler MenuHandler) *Menu {
	m := &Menu{surface: surface, handler: handler, items: items}
	m.refresh()
	m.selected = m.firstSelectable()
	return m
}

// Closed reports whether the menu was activated away or exited.
func (m *Menu) Closed() bool { return m.closed }

// Selected returns the index of the focused item.
func (m *Menu) Selected() int { return m.selected }

// HandleIntent applies one intent and redraws. It reports whether the menu is now closed.
func (m *Menu) HandleIntent(in engineinput.Intent) bool {
	if m.closed {
		return true
	}
	switch in.Action {
	case engineinput.ActionCursorUp, engineinput.ActionCursorLeft:
		m.move(-1)
	case engineinput.ActionCursorDown, engineinput.ActionCursorRight, engineinput.ActionNext:
		m.move(1)
	case engineinput.ActionPick:
		if in.Value >= 0 && in.Value < len(m.items) && m.items[in.Value].IsSelectable() {
			m.selected = in.Value
			m.handler.OnSelect(m.items[m.selected], m.selected)
			m.activate()
		}
	case engineinput.ActionSelect, engineinput.ActionSubmit:
		m.activate()
	case engineinput.ActionQuit:
		m.close()
	default:
		// Ignore other actions while in menu
	}
	if m.closed {
		return true
	}
	m.refresh()
	m.Draw()
	return false
}

// Draw paints the menu on its surface.
func (m *Menu) Draw() {
	m.surface.Draw(m.View())
}

// View renders the menu as a puzzle view: one line per item, the focused one marked.
func (m *Menu) View() puzzle.View {
	v := puzzle.View{Title: m.handler.GetTitle(), Phase: puzzle.PhaseActive}
	var selectedItem MenuItem
	for i, item := range m.items {
		prefix := "  "
		style := renderer.StyleNormal
		if !item.IsSelectable() {
			style = renderer.StyleSubtle
		}
		if i == m.selected {
			prefix = "> "
			style = renderer.StyleSelected
			selectedItem = item
		}
		v.Lines = append(v.Lines, puzzle.Text(prefix+item.GetLabel(), style))
	}

	v.Status = m.helpText
	if v.Status == "" && selectedItem != nil {
		v.Status = selectedItem.GetHelpText()
	}
	v.Severity = puzzle.SeverityInfo
	v.Controls = m.handler.GetInstructions(selectedItem)
	return v
}

func (m *Menu) activate() {
	if m.selected < 0 || m.selected >= len(m.items) || !m.items[m.selected].IsSelectable() {
		return
	}
	shouldClose, helpText := m.handler.OnActivate(m.items[m.selected], m.selected)
	m.helpText = helpText
	if shouldClose {
		m.close()
	}
}

func (m *Menu) close() {
	m.closed = true
	m.handler.OnExit()
}

// move steps the selection to the next selectable item in dir, wrapping around.
func (m *Menu) move(dir int) {
	n := len(m.items)
	for step := 1; step < n; step++ {
		i := ((m.selected+dir*step)%n + n) % n
		if m.items[i].IsSelectable() {
			m.selected = i
			m.helpText = "" // Clear help text when navigating
			m.handler.OnSelect(m.items[i], i)
			return
		}
	}
}

// refresh reloads dynamic items and keeps the selection on a selectable item.
func (m *Menu) refresh() {
	dyn, ok := m.handler.(DynamicMenuHandler)
	if !ok {
		return
	}
	m.items = dyn.GetMenuItems()
	if m.selected >= len(m.items) || !m.items[m.selected].IsSelectable() {
		m.selected = m.firstSelectable()
	}
}

func (m *Menu) firstSelectable() int {
	for i, item := range m.items {
		if item.IsSelectable() {
			return i
		}
	}
	return 0
}
