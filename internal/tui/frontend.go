// Package tui is the terminal frontend: it turns key events into button
// state and draws the ranch every frame.
package tui

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/config"
	"github.com/ranchsim/server/internal/core/ecs"
	"github.com/ranchsim/server/internal/input"
	"github.com/ranchsim/server/internal/sim"
)

const helpLine = "WASD/arrows move  space buy  q quit"

var (
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleAnimal = tcell.StyleDefault.Foreground(tcell.ColorPink)
)

// Frontend binds a tcell screen to a simulation. Terminals send no key
// release events, so an action stays held until HoldWindow has passed since
// its last key event (auto-repeat keeps refreshing it).
type Frontend struct {
	screen tcell.Screen
	sim    *sim.Sim
	hold   time.Duration
	cellW  float64
	cellH  float64

	lastSeen map[input.Action]time.Time
	now      func() time.Time
}

func New(screen tcell.Screen, s *sim.Sim, cfg config.FrontendConfig) *Frontend {
	return &Frontend{
		screen:   screen,
		sim:      s,
		hold:     cfg.HoldWindow,
		cellW:    cfg.CellWidth,
		cellH:    cfg.CellHeight,
		lastSeen: make(map[input.Action]time.Time),
		now:      time.Now,
	}
}

// HandleEvent records one terminal event and reports whether the user asked
// to quit.
func (f *Frontend) HandleEvent(ev tcell.Event) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
			return true
		}
		if a, ok := keyAction(ev); ok {
			f.lastSeen[a] = f.now()
		}
	case *tcell.EventResize:
		f.screen.Sync()
	}
	return false
}

func keyAction(ev *tcell.EventKey) (input.Action, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return input.ActionUp, true
	case tcell.KeyDown:
		return input.ActionDown, true
	case tcell.KeyLeft:
		return input.ActionLeft, true
	case tcell.KeyRight:
		return input.ActionRight, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return input.ActionUp, true
		case 's', 'S':
			return input.ActionDown, true
		case 'a', 'A':
			return input.ActionLeft, true
		case 'd', 'D':
			return input.ActionRight, true
		case ' ':
			return input.ActionSpawn, true
		}
	}
	return 0, false
}

// ApplyInput writes the held state of every action into the sim's buttons.
func (f *Frontend) ApplyInput() {
	now := f.now()
	for a, seen := range f.lastSeen {
		held := now.Sub(seen) < f.hold
		f.sim.Buttons.Set(a, held)
		if !held {
			delete(f.lastSeen, a)
		}
	}
}

// toCell maps world coordinates (+Y up, origin at screen centre) to a cell.
func (f *Frontend) toCell(x, y float64, w, h int) (int, int) {
	col := w/2 + int(math.Round(x/f.cellW))
	row := h/2 - int(math.Round(y/f.cellH))
	return col, row
}

// Draw renders animals, the player and the HUD.
func (f *Frontend) Draw() {
	ws := f.sim.State
	f.screen.Clear()
	w, h := f.screen.Size()

	ecs.Each3(ws.Livestock, ws.Positions, ws.Sprites, func(_ ecs.EntityID, _ *component.Livestock, pos *component.Position, sp *component.Sprite) {
		col, row := f.toCell(pos.X, pos.Y, w, h)
		if col >= 0 && col < w && row > 0 && row < h-1 {
			f.screen.SetContent(col, row, sp.Glyph, nil, styleAnimal)
		}
	})
	if id, err := ws.Player(); err == nil {
		if pos, ok := ws.Positions.Get(id); ok {
			col, row := f.toCell(pos.X, pos.Y, w, h)
			if col >= 0 && col < w && row > 0 && row < h-1 {
				f.screen.SetContent(col, row, '@', nil, stylePlayer)
			}
		}
	}

	herdSize := 0
	if herd, err := ws.Herd(); err == nil {
		herdSize = ws.HerdSize(herd)
	}
	f.drawText(0, 0, styleHUD, hudLine(ws.Ledger.Balance(), herdSize, ws.Tick()))
	f.drawText(0, h-1, styleHelp, helpLine)
	f.screen.Show()
}

func hudLine(balance float64, herd int, tick uint64) string {
	return fmt.Sprintf("$%s  herd %d  tick %s",
		humanize.CommafWithDigits(balance, 2), herd, humanize.Comma(int64(tick)))
}

func (f *Frontend) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		f.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Run polls terminal events and drives the simulation until the user quits
// or ctx is done.
func (f *Frontend) Run(ctx context.Context, tickRate time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := f.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return f.sim.Run(ctx, tickRate, sim.Hooks{
		Before: func() {
			for {
				select {
				case ev := <-events:
					if f.HandleEvent(ev) {
						cancel()
						return
					}
				default:
					f.ApplyInput()
					return
				}
			}
		},
		After: f.Draw,
	})
}
