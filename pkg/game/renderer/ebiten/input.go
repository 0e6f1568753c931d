package ebiten

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	engineinput "heist/pkg/engine/input"
)

// keyBinding maps a key to a raw input code. Repeating keys fire again while held.
type keyBinding struct {
	key    ebiten.Key
	code   string
	repeat bool
}

var keyBindings = []keyBinding{
	{ebiten.KeyArrowUp, "arrow_up", true},
	{ebiten.KeyArrowDown, "arrow_down", true},
	{ebiten.KeyArrowLeft, "arrow_left", true},
	{ebiten.KeyArrowRight, "arrow_right", true},
	{ebiten.KeyK, "k", true},
	{ebiten.KeyJ, "j", true},
	{ebiten.KeyH, "h", true},
	{ebiten.KeyL, "l", true},
	{ebiten.KeyEqual, "=", true},
	{ebiten.KeyNumpadAdd, "numpad_add", true},
	{ebiten.KeyMinus, "-", true},
	{ebiten.KeyNumpadSubtract, "numpad_sub", true},
	{ebiten.KeyBackspace, "backspace", false},
	{ebiten.KeyC, "c", false},
	{ebiten.KeySpace, "space", false},
	{ebiten.KeyTab, "tab", false},
	{ebiten.KeyEnter, "enter", false},
	{ebiten.KeyNumpadEnter, "enter", false},
	{ebiten.KeyP, "p", false},
	{ebiten.KeyV, "v", false},
	{ebiten.KeyQ, "quit", false},
	{ebiten.KeyEscape, "quit", false},
}

var digitKeys = [10][2]ebiten.Key{
	{ebiten.Key0, ebiten.KeyNumpad0},
	{ebiten.Key1, ebiten.KeyNumpad1},
	{ebiten.Key2, ebiten.KeyNumpad2},
	{ebiten.Key3, ebiten.KeyNumpad3},
	{ebiten.Key4, ebiten.KeyNumpad4},
	{ebiten.Key5, ebiten.KeyNumpad5},
	{ebiten.Key6, ebiten.KeyNumpad6},
	{ebiten.Key7, ebiten.KeyNumpad7},
	{ebiten.Key8, ebiten.KeyNumpad8},
	{ebiten.Key9, ebiten.KeyNumpad9},
}

// Update handles input (Ebiten interface)
func (e *Renderer) Update() error {
	select {
	case <-e.closed:
		return ebiten.Termination
	default:
	}

	// Log window opening on first update (confirms window is actually running)
	if !e.windowOpenedLogged {
		e.windowOpenedLogged = true
		w, h := ebiten.WindowSize()
		e.log.Info("window opened", zap.Int("width", w), zap.Int("height", h))
	}

	// Ctrl +/- zoom; plain +/- turn dials
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		e.handleZoom()
		return nil
	}

	if intent := e.checkMouseInput(); intent.Action != engineinput.ActionNone {
		e.send(intent)
	} else if intent := e.checkGamepadInput(); intent.Action != engineinput.ActionNone {
		e.send(intent)
	} else if intent := e.checkInput(); intent.Action != engineinput.ActionNone {
		e.send(intent)
	}
	return nil
}

func (e *Renderer) send(intent engineinput.Intent) {
	// Non-blocking send to input channel
	select {
	case e.inputChan <- intent:
	default:
		// Channel full, drop input
	}
}

func intentFor(device engineinput.Device, code string) engineinput.Intent {
	return engineinput.MapToIntent(engineinput.NewDebouncedInput(engineinput.RawInput{
		Device:    device,
		Code:      code,
		Timestamp: time.Now(),
	}))
}

// handleZoom handles Ctrl =/- for tile size adjustment
func (e *Renderer) handleZoom() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		e.setTileSize(e.tileSize + tileSizeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		e.setTileSize(e.tileSize - tileSizeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.Key0) || inpututil.IsKeyJustPressed(ebiten.KeyNumpad0) {
		e.setTileSize(defaultTileSize)
	}
}

func (e *Renderer) setTileSize(size int) {
	size = min(max(size, minTileSize), maxTileSize)
	if size == e.tileSize {
		return
	}
	e.tileSize = size
	e.invalidateFontCache()
}

// shouldRepeatKey checks if a key/button should trigger (initial press or repeat)
// Returns true if the key should trigger, false otherwise
func (e *Renderer) shouldRepeatKey(isPressed func() bool, code string) bool {
	now := time.Now().UnixMilli()

	e.keyRepeatStateMutex.Lock()
	defer e.keyRepeatStateMutex.Unlock()

	state, exists := e.keyRepeatState[code]
	if !isPressed() {
		// Key released - clean up state
		delete(e.keyRepeatState, code)
		return false
	}
	if !exists {
		// First press - record it and trigger immediately
		e.keyRepeatState[code] = keyRepeatInfo{firstPressed: now, lastRepeat: now}
		return true
	}
	return e.repeatDue(code, state, now)
}

// repeatDue reports whether a held key fires again at now and records the repeat.
// The caller holds keyRepeatStateMutex.
func (e *Renderer) repeatDue(code string, state keyRepeatInfo, now int64) bool {
	if now-state.firstPressed < keyRepeatInitialDelay || now-state.lastRepeat < keyRepeatInterval {
		return false
	}
	state.lastRepeat = now
	e.keyRepeatState[code] = state
	return true
}

// checkMouseInput turns a left click on a grid cell into a pick.
func (e *Renderer) checkMouseInput() engineinput.Intent {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return engineinput.Intent{Action: engineinput.ActionNone}
	}
	x, y := ebiten.CursorPosition()
	idx, ok := e.grid.cellAt(x, y)
	if !ok {
		return engineinput.Intent{Action: engineinput.ActionNone}
	}
	return intentFor(engineinput.DeviceMouse, "pick:"+strconv.Itoa(idx))
}

// checkGamepadInput checks for controller/gamepad input and returns the corresponding Intent.
// NOTE: Button indices here are tuned for common XInput-style controllers on Linux;
// mappings may vary between devices/platforms.
func (e *Renderer) checkGamepadInput() engineinput.Intent {
	var ids []ebiten.GamepadID
	ids = ebiten.AppendGamepadIDs(ids[:0])

	for _, id := range ids {
		// Left stick, with key repeat. Axes: 0 = X, 1 = Y
		const deadZone = 0.5
		stickX := ebiten.GamepadAxisValue(id, 0)
		stickY := ebiten.GamepadAxisValue(id, 1)
		sticks := []struct {
			name    string
			pressed bool
			code    string
		}{
			{"left", stickX < -deadZone, "gamepad_dpad_left"},
			{"right", stickX > deadZone, "gamepad_dpad_right"},
			{"up", stickY < -deadZone, "gamepad_dpad_up"},
			{"down", stickY > deadZone, "gamepad_dpad_down"},
		}
		for _, s := range sticks {
			pressed := s.pressed
			if e.shouldRepeatKey(func() bool { return pressed }, fmt.Sprintf("gamepad_%d_stick_%s", id, s.name)) {
				return intentFor(engineinput.DeviceGamepad, s.code)
			}
		}

		// Directional pad with key repeat: 11 up, 12 right, 13 down, 14 left
		dpad := []struct {
			button ebiten.GamepadButton
			code   string
		}{
			{ebiten.GamepadButton11, "gamepad_dpad_up"},
			{ebiten.GamepadButton12, "gamepad_dpad_right"},
			{ebiten.GamepadButton13, "gamepad_dpad_down"},
			{ebiten.GamepadButton14, "gamepad_dpad_left"},
		}
		for _, d := range dpad {
			button := d.button
			if e.shouldRepeatKey(func() bool { return ebiten.IsGamepadButtonPressed(id, button) }, fmt.Sprintf("gamepad_%d_%d", id, button)) {
				return intentFor(engineinput.DeviceGamepad, d.code)
			}
		}

		// Face and shoulder buttons: A 0, B 1, X 2, Y 3, LB 4, RB 5, Back 6, Start 7
		buttons := []struct {
			button ebiten.GamepadButton
			code   string
		}{
			{ebiten.GamepadButton0, "gamepad_a"},
			{ebiten.GamepadButton1, "gamepad_b"},
			{ebiten.GamepadButton2, "gamepad_x"},
			{ebiten.GamepadButton3, "gamepad_y"},
			{ebiten.GamepadButton4, "gamepad_lb"},
			{ebiten.GamepadButton5, "gamepad_rb"},
			{ebiten.GamepadButton6, "gamepad_back"},
			{ebiten.GamepadButton7, "gamepad_start"},
		}
		for _, b := range buttons {
			if inpututil.IsGamepadButtonJustPressed(id, b.button) {
				return intentFor(engineinput.DeviceGamepad, b.code)
			}
		}
	}

	return engineinput.Intent{Action: engineinput.ActionNone}
}

// checkInput checks for keyboard input and returns the corresponding Intent.
func (e *Renderer) checkInput() engineinput.Intent {
	// Help
	if inpututil.IsKeyJustPressed(ebiten.KeySlash) && ebiten.IsKeyPressed(ebiten.KeyShift) {
		return intentFor(engineinput.DeviceKeyboard, "?")
	}

	for i, keys := range digitKeys {
		if inpututil.IsKeyJustPressed(keys[0]) || inpututil.IsKeyJustPressed(keys[1]) {
			return intentFor(engineinput.DeviceKeyboard, strconv.Itoa(i))
		}
	}

	for _, b := range keyBindings {
		if b.repeat {
			key := b.key
			if e.shouldRepeatKey(func() bool { return ebiten.IsKeyPressed(key) }, "key_"+b.code) {
				return intentFor(engineinput.DeviceKeyboard, b.code)
			}
			continue
		}
		if inpututil.IsKeyJustPressed(b.key) {
			return intentFor(engineinput.DeviceKeyboard, b.code)
		}
	}

	return engineinput.Intent{Action: engineinput.ActionNone}
}

// Layout returns the game's logical screen size (Ebiten interface)
func (e *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	e.windowWidth = outsideWidth
	e.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}
