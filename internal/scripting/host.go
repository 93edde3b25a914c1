// Package scripting implements the ScriptHost contract (spec.md §4.9): an
// opaque handle set of per-package gopher-lua VMs, name-based global
// dispatch, and a BattleCallback type scripts are turned into so the core
// can invoke them later without re-walking a script's own state.
//
// Grounded on the teacher's absent equivalent (the MMO loads every script
// into one shared VM; a per-package VM with namespace-qualified lookup has
// no teacher analogue) crossed with original_source/.../lua_api/vm_manager.rs
// for the (package_id, namespace) -> vm_index registry shape; the
// CallByParam/table-building idiom itself is carried over verbatim from the
// teacher's own gopher-lua usage.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/rollbacknet/battlecore/internal/battle/berr"
)

// VMHandle indexes into Host.vms, the opaque handle a script caller holds
// across frames (spec.md §4.9 "opaque handle set Vms").
type VMHandle int

type vmEntry struct {
	packageID  string
	namespaces map[string]struct{}
	state      *lua.LState
}

// Host owns every loaded package VM plus the live API surface bound into
// each one. One Host is constructed per battle; LoadPackage is called once
// per script package before the battle starts.
type Host struct {
	log  *zap.Logger
	vms  []*vmEntry
	byNS map[string]VMHandle // "packageID/namespace" -> handle
}

func NewHost(log *zap.Logger) *Host {
	return &Host{log: log, byNS: make(map[string]VMHandle)}
}

// LoadPackage creates a fresh VM for packageID, registers it under every
// given namespace, binds the dynamic API surface against sim, and loads
// every .lua file in dir (non-recursive, matching the teacher's
// Engine.loadDir). A missing dir is not an error — an empty package is
// valid and simply exposes no globals.
func (h *Host) LoadPackage(packageID string, namespaces []string, dir string, api Surface) (VMHandle, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	bind(vm, api)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			vm.Close()
			return 0, fmt.Errorf("scripting: read %s: %w", dir, err)
		}
		entries = nil
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			vm.Close()
			return 0, fmt.Errorf("scripting: load %s: %w", path, err)
		}
		if h.log != nil {
			h.log.Debug("loaded package script", zap.String("package", packageID), zap.String("file", path))
		}
	}

	handle := VMHandle(len(h.vms))
	nsSet := make(map[string]struct{}, len(namespaces))
	for _, ns := range namespaces {
		nsSet[ns] = struct{}{}
		h.byNS[packageID+"/"+ns] = handle
	}
	h.vms = append(h.vms, &vmEntry{packageID: packageID, namespaces: nsSet, state: vm})
	return handle, nil
}

// FindVM resolves a (package id, namespace) pair to its handle (spec.md
// §4.9 "find_vm(package_id, namespace)").
func (h *Host) FindVM(packageID, namespace string) (VMHandle, error) {
	handle, ok := h.byNS[packageID+"/"+namespace]
	if !ok {
		return 0, berr.PackageNotFound{PackageID: packageID, Namespace: namespace}
	}
	return handle, nil
}

func (h *Host) entry(handle VMHandle) (*vmEntry, error) {
	if int(handle) < 0 || int(handle) >= len(h.vms) {
		return nil, berr.PackageNotLoaded{PackageID: fmt.Sprintf("<handle %d>", handle)}
	}
	return h.vms[handle], nil
}

// CallGlobal invokes fnName as a global function in the VM at handle,
// building its arguments against that VM's own *lua.LState (so the caller
// never constructs lua.LValue outside the owning VM) and returning the raw
// results for the caller to decode (spec.md §4.9 "call_global(vm_index,
// fn_name, param_builder)").
func (h *Host) CallGlobal(handle VMHandle, fnName string, nret int, build func(vm *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	e, err := h.entry(handle)
	if err != nil {
		return nil, err
	}
	fn := e.state.GetGlobal(fnName)
	if fn == lua.LNil {
		return nil, berr.ScriptError{Message: fmt.Sprintf("global %q not defined in package %s", fnName, e.packageID)}
	}
	var args []lua.LValue
	if build != nil {
		args = build(e.state)
	}
	if err := e.state.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, berr.ScriptError{Message: err.Error()}
	}
	results := make([]lua.LValue, nret)
	for i := nret - 1; i >= 0; i-- {
		results[i] = e.state.Get(-1)
		e.state.Pop(1)
	}
	return results, nil
}

// Callable resolves fnName to a stable *lua.LFunction handle at the moment
// a script registers a callback, so the core can invoke it later without
// re-resolving the global by name (spec.md §4.9 "callable handle").
func (h *Host) Callable(handle VMHandle, fnName string) (*lua.LFunction, error) {
	e, err := h.entry(handle)
	if err != nil {
		return nil, err
	}
	fn, ok := e.state.GetGlobal(fnName).(*lua.LFunction)
	if !ok {
		return nil, berr.ScriptError{Message: fmt.Sprintf("global %q is not a function in package %s", fnName, e.packageID)}
	}
	return fn, nil
}

// BattleCallback captures a (VM handle, callable, parameter transformer,
// result decoder) tuple the core can invoke on demand (spec.md §4.9 "the
// ability to transform script values into BattleCallback<Args,Ret>
// objects"). It never holds onto anything from the frame that created it
// beyond these four fields, so it is safe to store on a long-lived entity
// component and call many frames later.
type BattleCallback[Args any, Ret any] struct {
	vm        VMHandle
	fn        *lua.LFunction
	transform func(vm *lua.LState, args Args) []lua.LValue
	decode    func(results []lua.LValue) Ret
	nret      int
}

// NewCallback builds a BattleCallback bound to fnName's current definition
// in the VM at handle. transform turns the call-site Args into Lua
// arguments against that VM's own state; decode turns the raw results back
// into Ret.
func NewCallback[Args any, Ret any](h *Host, handle VMHandle, fnName string, nret int,
	transform func(vm *lua.LState, args Args) []lua.LValue,
	decode func(results []lua.LValue) Ret,
) (*BattleCallback[Args, Ret], error) {
	fn, err := h.Callable(handle, fnName)
	if err != nil {
		return nil, err
	}
	return &BattleCallback[Args, Ret]{vm: handle, fn: fn, transform: transform, decode: decode, nret: nret}, nil
}

// Call invokes the captured callable against h, in the VM it was captured
// from, without re-resolving anything by name.
func (cb *BattleCallback[Args, Ret]) Call(h *Host, args Args) (Ret, error) {
	var zero Ret
	e, err := h.entry(cb.vm)
	if err != nil {
		return zero, err
	}
	var luaArgs []lua.LValue
	if cb.transform != nil {
		luaArgs = cb.transform(e.state, args)
	}
	if err := e.state.CallByParam(lua.P{Fn: cb.fn, NRet: cb.nret, Protect: true}, luaArgs...); err != nil {
		return zero, berr.ScriptError{Message: err.Error()}
	}
	results := make([]lua.LValue, cb.nret)
	for i := cb.nret - 1; i >= 0; i-- {
		results[i] = e.state.Get(-1)
		e.state.Pop(1)
	}
	if cb.decode == nil {
		return zero, nil
	}
	return cb.decode(results), nil
}

// Close releases every loaded VM. Called once when the battle ends.
func (h *Host) Close() {
	for _, e := range h.vms {
		e.state.Close()
	}
}
