package scripting

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	"github.com/gridwar/server/internal/system"
)

//go:embed scripts/*.lua
var builtin embed.FS

type script struct {
	name  string
	proto *lua.FunctionProto
}

// Engine runs the damage rules. Scripts are compiled once; each call borrows
// a Lua state from a pool, so matches resolving damage at the same time
// never wait on one another. mu guards the pool only.
type Engine struct {
	scripts []script
	log     *zap.Logger

	mu     sync.Mutex
	pool   []*lua.LState
	closed bool
}

// NewEngine compiles the built-in scripts, then every .lua file in
// scriptsDir on top so its functions override the defaults. An empty
// scriptsDir keeps the built-ins only.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{log: log}
	if err := e.compileBuiltin(); err != nil {
		return nil, fmt.Errorf("load builtin scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.compileDir(scriptsDir); err != nil {
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	// Run the scripts once so top-level errors surface here.
	L, err := e.newState()
	if err != nil {
		return nil, err
	}
	e.pool = append(e.pool, L)
	return e, nil
}

func compile(name string, src []byte) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(bytes.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return proto, nil
}

func (e *Engine) compileBuiltin() error {
	names, err := fs.Glob(builtin, "scripts/*.lua")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		src, err := builtin.ReadFile(name)
		if err != nil {
			return err
		}
		proto, err := compile(name, src)
		if err != nil {
			return err
		}
		e.scripts = append(e.scripts, script{name: name, proto: proto})
	}
	return nil
}

// compileDir compiles all .lua files in a directory.
func (e *Engine) compileDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		proto, err := compile(path, src)
		if err != nil {
			return err
		}
		e.scripts = append(e.scripts, script{name: path, proto: proto})
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// newState builds a VM with every compiled script executed in load order.
func (e *Engine) newState() (*lua.LState, error) {
	L := lua.NewState()
	L.SetGlobal("API_VERSION", lua.LNumber(1))
	for _, s := range e.scripts {
		L.Push(L.NewFunctionFromProto(s.proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			L.Close()
			return nil, fmt.Errorf("run %s: %w", s.name, err)
		}
	}
	return L, nil
}

func (e *Engine) get() (*lua.LState, error) {
	e.mu.Lock()
	if n := len(e.pool); n > 0 {
		L := e.pool[n-1]
		e.pool = e.pool[:n-1]
		e.mu.Unlock()
		return L, nil
	}
	e.mu.Unlock()
	return e.newState()
}

func (e *Engine) put(L *lua.LState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		L.Close()
		return
	}
	e.pool = append(e.pool, L)
}

// Damage implements system.DamageRule by calling calc_melee_damage or
// calc_range_damage. Any script failure falls back to the strike's power.
func (e *Engine) Damage(s system.Strike) int {
	name := "calc_melee_damage"
	if s.Ranged {
		name = "calc_range_damage"
	}

	L, err := e.get()
	if err != nil {
		e.log.Error("lua state", zap.Error(err))
		return s.Power
	}
	defer e.put(L)

	fn := L.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return s.Power
	}

	t := L.NewTable()
	t.RawSetString("attacker_piece", lua.LString(s.AttackerPiece.String()))
	t.RawSetString("victim_piece", lua.LString(s.VictimPiece.String()))
	t.RawSetString("power", lua.LNumber(s.Power))
	t.RawSetString("victim_health", lua.LNumber(s.VictimHealth))
	t.RawSetString("splash", lua.LBool(s.Splash))

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return s.Power
	}

	result := L.Get(-1)
	L.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua damage returned non-number", zap.String("func", name), zap.String("type", result.Type().String()))
		return s.Power
	}
	return int(n)
}

// Close releases every pooled VM. States still borrowed are closed when
// they come back.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for _, L := range e.pool {
		L.Close()
	}
	e.pool = nil
}
