// Package input latches digital commands once per frame so systems can tell
// a fresh press from a held button.
package input

import "fmt"

// Action is a digital command.
type Action uint8

const (
	ActionSpawn Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	actionCount
)

var actionNames = [actionCount]string{"spawn", "up", "down", "left", "right"}

func (a Action) String() string {
	if a >= actionCount {
		return fmt.Sprintf("action(%d)", uint8(a))
	}
	return actionNames[a]
}

// ParseAction maps a name such as "spawn" or "left" to its Action.
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Buttons holds the state of every action for the current and previous frame.
// Writers (frontend, scripts) call Press/Release/Tap between frames; systems
// read Pressed/JustPressed during a frame; the driver calls EndFrame after it.
type Buttons struct {
	cur  [actionCount]bool
	prev [actionCount]bool
	tap  [actionCount]bool
}

func NewButtons() *Buttons { return &Buttons{} }

func (b *Buttons) Press(a Action)   { b.Set(a, true) }
func (b *Buttons) Release(a Action) { b.Set(a, false) }

func (b *Buttons) Set(a Action, down bool) {
	if a < actionCount {
		b.cur[a] = down
	}
}

// Tap presses a for exactly the next frame. The press is always an edge,
// even if a was already held, and a is released after that frame.
func (b *Buttons) Tap(a Action) {
	if a < actionCount {
		b.cur[a] = true
		b.prev[a] = false
		b.tap[a] = true
	}
}

// Pressed reports whether a is down this frame.
func (b *Buttons) Pressed(a Action) bool {
	return a < actionCount && b.cur[a]
}

// JustPressed reports whether a went down this frame.
func (b *Buttons) JustPressed(a Action) bool {
	return a < actionCount && b.cur[a] && !b.prev[a]
}

// EndFrame latches the current state as the previous one and releases taps.
// A tapped action counts as released before the next frame, so back-to-back
// taps are each an edge.
func (b *Buttons) EndFrame() {
	b.prev = b.cur
	for i, tapped := range b.tap {
		if tapped {
			b.cur[i] = false
			b.prev[i] = false
			b.tap[i] = false
		}
	}
}
