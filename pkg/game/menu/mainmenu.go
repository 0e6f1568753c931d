package menu

import (
	"github.com/leonelquinteros/gotext"

	"heist/pkg/game/stage"
)

// dynamicGet is used for runtime translation key lookups.
var dynamicGet = gotext.Get

// MainMenuAction represents the action type for main menu items.
type MainMenuAction int

const (
	MainMenuActionRole MainMenuAction = iota
	MainMenuActionBindings
	MainMenuActionBack
	MainMenuActionQuit
)

// MainMenuItem represents a menu item in the main menu.
type MainMenuItem struct {
	Label  string
	Action MainMenuAction
	Role   stage.Role // Set for MainMenuActionRole
}

// GetLabel returns the display label for this menu item.
func (m *MainMenuItem) GetLabel() string {
	if m.Action == MainMenuActionRole {
		return dynamicGet(string(m.Role))
	}
	return m.Label
}

// IsSelectable returns whether this item can be selected.
func (m *MainMenuItem) IsSelectable() bool {
	return true
}

// GetHelpText returns help text for this menu item.
func (m *MainMenuItem) GetHelpText() string {
	switch m.Action {
	case MainMenuActionRole:
		return RolePower(m.Role)
	case MainMenuActionBindings:
		return gotext.Get("Show the keyboard and gamepad controls")
	case MainMenuActionBack:
		return gotext.Get("Back to the crew roles")
	case MainMenuActionQuit:
		return gotext.Get("Leave without playing")
	default:
		return ""
	}
}

// RolePower describes a role's once-per-stage power.
func RolePower(r stage.Role) string {
	switch r {
	case stage.Hacker:
		return gotext.Get("Power: slow the security systems for extra time on the clock")
	case stage.SafeCracker:
		return gotext.Get("Power: bypass one lock of the current puzzle")
	case stage.Demolitions:
		return gotext.Get("Power: blast a shortcut so the next stage is easier")
	case stage.Lookout:
		return gotext.Get("Power: spot security events before they happen")
	default:
		return ""
	}
}

// MainMenuHandler is the role picker shown before a heist when no role was given.
type MainMenuHandler struct {
	role         stage.Role
	chosen       bool
	shouldQuit   bool
	showBindings bool
}

// NewMainMenuHandler creates a new main menu handler.
func NewMainMenuHandler() *MainMenuHandler {
	return &MainMenuHandler{}
}

// GetTitle returns the menu title.
func (h *MainMenuHandler) GetTitle() string {
	if h.showBindings {
		return gotext.Get("Controls")
	}
	return gotext.Get("Choose your role")
}

// GetInstructions returns the menu instructions.
func (h *MainMenuHandler) GetInstructions(selected MenuItem) string {
	return gotext.Get("arrows move, Enter picks, q quits")
}

// OnSelect is called when an item is selected.
func (h *MainMenuHandler) OnSelect(item MenuItem, index int) {}

// OnActivate is called when an item is activated.
func (h *MainMenuHandler) OnActivate(item MenuItem, index int) (shouldClose bool, helpText string) {
	mainItem, ok := item.(*MainMenuItem)
	if !ok {
		return false, ""
	}
	switch mainItem.Action {
	case MainMenuActionRole:
		h.role = mainItem.Role
		h.chosen = true
		return true, ""
	case MainMenuActionBindings:
		h.showBindings = true
		return false, ""
	case MainMenuActionBack:
		h.showBindings = false
		return false, ""
	case MainMenuActionQuit:
		h.shouldQuit = true
		return true, ""
	}
	return false, ""
}

// OnExit is called when the menu is exited.
func (h *MainMenuHandler) OnExit() {
	if !h.chosen {
		h.shouldQuit = true
	}
}

// Role returns the chosen role, false until one was picked.
func (h *MainMenuHandler) Role() (stage.Role, bool) {
	return h.role, h.chosen
}

// ShouldQuit returns true if the user selected Quit or left the menu.
func (h *MainMenuHandler) ShouldQuit() bool {
	return h.shouldQuit
}

// GetMenuItems returns the roles, or the controls list while it is open.
func (h *MainMenuHandler) GetMenuItems() []MenuItem {
	if h.showBindings {
		items := BindingItems()
		return append(items, &MainMenuItem{Label: gotext.Get("Back"), Action: MainMenuActionBack})
	}
	items := make([]MenuItem, 0, len(stage.Roles)+2)
	for _, r := range stage.Roles {
		items = append(items, &MainMenuItem{Action: MainMenuActionRole, Role: r})
	}
	return append(items,
		&MainMenuItem{Label: gotext.Get("Controls"), Action: MainMenuActionBindings},
		&MainMenuItem{Label: gotext.Get("Quit"), Action: MainMenuActionQuit},
	)
}

var _ DynamicMenuHandler = (*MainMenuHandler)(nil)
