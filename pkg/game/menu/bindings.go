package menu

import (
	"fmt"
	"strings"

	"github.com/leonelquinteros/gotext"

	engineinput "heist/pkg/engine/input"
)

// BindingMenuItem lists the codes bound to one action. It cannot be selected.
type BindingMenuItem struct {
	Action engineinput.Action
}

// GetLabel returns the display label for this binding menu item.
func (b *BindingMenuItem) GetLabel() string {
	codes := engineinput.GetBindingsByAction()[b.Action]
	codeText := strings.Join(codes, ", ")
	if codeText == "" {
		codeText = gotext.Get("(unbound)")
	}
	return fmt.Sprintf("%-14s %s", engineinput.ActionName(b.Action), codeText)
}

// IsSelectable returns whether this binding can be selected.
func (b *BindingMenuItem) IsSelectable() bool {
	return false
}

// GetHelpText returns help text for this binding.
func (b *BindingMenuItem) GetHelpText() string {
	return ""
}

// boundActions is the order the controls list shows.
var boundActions = []engineinput.Action{
	engineinput.ActionCursorUp,
	engineinput.ActionCursorDown,
	engineinput.ActionCursorLeft,
	engineinput.ActionCursorRight,
	engineinput.ActionIncrease,
	engineinput.ActionDecrease,
	engineinput.ActionClear,
	engineinput.ActionSelect,
	engineinput.ActionNext,
	engineinput.ActionSubmit,
	engineinput.ActionPower,
	engineinput.ActionVote,
	engineinput.ActionHint,
	engineinput.ActionQuit,
}

// BindingItems returns one item per player action.
func BindingItems() []MenuItem {
	items := make([]MenuItem, 0, len(boundActions))
	for _, a := range boundActions {
		items = append(items, &BindingMenuItem{Action: a})
	}
	return items
}
