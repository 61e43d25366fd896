// Package scripting runs Lua scenarios against a simulation.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/event"
	"github.com/ranchsim/server/internal/input"
	"github.com/ranchsim/server/internal/sim"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM bound to one simulation.
// Single-goroutine access only (the simulation goroutine).
type Engine struct {
	vm  *lua.LState
	sim *sim.Sim
	log *zap.Logger

	hookErr error // first failed hook since the last check
}

// NewEngine creates a Lua VM and exposes the scenario API:
//
//	spawn()            tap the spawn action and run one frame; a held
//	                   spawn action still counts as a fresh press
//	press(a)/release(a) hold or let go of an action ("up", "spawn", ...)
//	step(seconds)      run whole frames until seconds have elapsed
//	balance()          current ledger balance
//	livestock()        number of live animals
//	herd_size()        children under the herd anchor
//	player()           player x, y
//	tick()             current frame number
//	info(msg)          log through zap
//
// Scripts may define on_spawned(e) and on_sold(e); they are called with a
// table of the event fields when the simulation dispatches one. A hook that
// raises an error aborts the script at the spawn() or step() that ran it.
func NewEngine(s *sim.Sim, log *zap.Logger) *Engine {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, sim: s, log: log}
	for name, fn := range map[string]lua.LGFunction{
		"spawn":     e.luaSpawn,
		"press":     e.luaPress,
		"release":   e.luaRelease,
		"step":      e.luaStep,
		"balance":   e.luaBalance,
		"livestock": e.luaLivestock,
		"herd_size": e.luaHerdSize,
		"player":    e.luaPlayer,
		"tick":      e.luaTick,
		"info":      e.luaInfo,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}

	event.Subscribe(s.Bus, func(ev event.LivestockSpawned) {
		t := vm.NewTable()
		t.RawSetString("tick", lua.LNumber(ev.Tick))
		t.RawSetString("entity", lua.LNumber(ev.Entity))
		t.RawSetString("sprite", lua.LString(ev.Sprite))
		t.RawSetString("x", lua.LNumber(ev.X))
		t.RawSetString("y", lua.LNumber(ev.Y))
		t.RawSetString("balance", lua.LNumber(ev.Balance))
		e.callHook("on_spawned", t)
	})
	event.Subscribe(s.Bus, func(ev event.LivestockSold) {
		t := vm.NewTable()
		t.RawSetString("tick", lua.LNumber(ev.Tick))
		t.RawSetString("entity", lua.LNumber(ev.Entity))
		t.RawSetString("payout", lua.LNumber(ev.Payout))
		t.RawSetString("balance", lua.LNumber(ev.Balance))
		e.callHook("on_sold", t)
	})
	return e
}

// RunFile executes one scenario script. Lua errors, including failed
// assert() calls, come back as Go errors.
func (e *Engine) RunFile(path string) error {
	e.hookErr = nil
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	if err := e.takeHookErr(); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.log.Debug("scenario finished", zap.String("file", path))
	return nil
}

// RunString executes an inline chunk.
func (e *Engine) RunString(src string) error {
	e.hookErr = nil
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run chunk: %w", err)
	}
	if err := e.takeHookErr(); err != nil {
		return fmt.Errorf("run chunk: %w", err)
	}
	return nil
}

// ScenarioFiles lists the .lua files in dir in name order.
func ScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// callHook calls a global Lua function if the script defined one.
func (e *Engine) callHook(name string, arg lua.LValue) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua hook error", zap.String("func", name), zap.Error(err))
		if e.hookErr == nil {
			e.hookErr = fmt.Errorf("hook %s: %w", name, err)
		}
	}
}

func (e *Engine) takeHookErr() error {
	err := e.hookErr
	e.hookErr = nil
	return err
}

// raiseHookErr turns a failed hook into a Lua error in the calling script.
func (e *Engine) raiseHookErr(L *lua.LState) {
	if err := e.takeHookErr(); err != nil {
		L.RaiseError("%v", err)
	}
}

func (e *Engine) action(L *lua.LState) input.Action {
	a, err := input.ParseAction(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	return a
}

func (e *Engine) luaSpawn(L *lua.LState) int {
	e.sim.Buttons.Tap(input.ActionSpawn)
	e.sim.Step(e.sim.StepSize())
	e.raiseHookErr(L)
	return 0
}

func (e *Engine) luaPress(L *lua.LState) int {
	e.sim.Buttons.Press(e.action(L))
	return 0
}

func (e *Engine) luaRelease(L *lua.LState) int {
	e.sim.Buttons.Release(e.action(L))
	return 0
}

func (e *Engine) luaStep(L *lua.LState) int {
	secs := float64(L.CheckNumber(1))
	if secs < 0 {
		L.ArgError(1, "seconds must not be negative")
	}
	total := time.Duration(secs * float64(time.Second))
	frames := e.sim.Advance(total, e.sim.StepSize())
	e.raiseHookErr(L)
	L.Push(lua.LNumber(frames))
	return 1
}

func (e *Engine) luaBalance(L *lua.LState) int {
	L.Push(lua.LNumber(e.sim.State.Ledger.Balance()))
	return 1
}

func (e *Engine) luaLivestock(L *lua.LState) int {
	L.Push(lua.LNumber(e.sim.State.LivestockCount()))
	return 1
}

func (e *Engine) luaHerdSize(L *lua.LState) int {
	herd, err := e.sim.State.Herd()
	if err != nil {
		L.RaiseError("%v", err)
	}
	L.Push(lua.LNumber(e.sim.State.HerdSize(herd)))
	return 1
}

func (e *Engine) luaPlayer(L *lua.LState) int {
	id, err := e.sim.State.Player()
	if err != nil {
		L.RaiseError("%v", err)
	}
	pos, ok := e.sim.State.Positions.Get(id)
	if !ok {
		pos = &component.Position{}
	}
	L.Push(lua.LNumber(pos.X))
	L.Push(lua.LNumber(pos.Y))
	return 2
}

func (e *Engine) luaTick(L *lua.LState) int {
	L.Push(lua.LNumber(e.sim.State.Tick()))
	return 1
}

func (e *Engine) luaInfo(L *lua.LState) int {
	e.log.Info(L.CheckString(1), zap.String("source", "lua"), zap.Uint64("tick", e.sim.State.Tick()))
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
