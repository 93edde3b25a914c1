package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/rollbacknet/battlecore/internal/battle/berr"
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/field"
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/config"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("writeScript: %v", err)
	}
}

func testSurface(t *testing.T) (Surface, *sim.BattleSimulation) {
	t.Helper()
	cfg := &config.BattleRules{}
	s := sim.NewSimulation(cfg, status.NewRegistry(), 1)
	return Surface{Current: func() *sim.BattleSimulation { return s }}, s
}

func TestLoadPackageMissingDirIsNotAnError(t *testing.T) {
	host := NewHost(nil)
	defer host.Close()

	api, _ := testSurface(t)
	if _, err := host.LoadPackage("battle", []string{"battle"}, filepath.Join(t.TempDir(), "nonexistent"), api); err != nil {
		t.Fatalf("expected a missing script dir to be valid (empty package), got %v", err)
	}
}

func TestLoadPackageAndCallGlobal(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "main.lua", `
function add(a, b)
  return a + b
end

function spawn_one()
  return spawn_entity(0, 3, 1)
end
`)

	host := NewHost(nil)
	defer host.Close()

	api, s := testSurface(t)
	handle, err := host.LoadPackage("battle", []string{"battle"}, dir, api)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}

	results, err := host.CallGlobal(handle, "add", 1, func(vm *lua.LState) []lua.LValue {
		return []lua.LValue{lua.LNumber(2), lua.LNumber(3)}
	})
	if err != nil {
		t.Fatalf("CallGlobal(add): %v", err)
	}
	if got := lua.LVAsNumber(results[0]); got != 5 {
		t.Errorf("expected add(2,3) == 5, got %v", got)
	}

	if _, err := host.CallGlobal(handle, "spawn_one", 1, nil); err != nil {
		t.Fatalf("CallGlobal(spawn_one): %v", err)
	}

	count := 0
	s.EachEntity(func(_ ecs.EntityID, _ *entity.Entity) { count++ })
	if count != 1 {
		t.Errorf("expected spawn_entity called from Lua to create one entity, got %d", count)
	}
}

func TestFindVMResolvesByNamespace(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "main.lua", "")

	host := NewHost(nil)
	defer host.Close()
	api, _ := testSurface(t)
	handle, err := host.LoadPackage("battle", []string{"battle", "arena"}, dir, api)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}

	got, err := host.FindVM("battle", "arena")
	if err != nil || got != handle {
		t.Fatalf("expected FindVM to resolve the registered namespace, got handle=%v err=%v", got, err)
	}

	if _, err := host.FindVM("battle", "missing"); !errors.As(err, new(berr.PackageNotFound)) {
		t.Errorf("expected PackageNotFound for an unregistered namespace, got %v", err)
	}
}

func TestCallableAndNewCallbackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "main.lua", `
function double(n)
  return n * 2
end
`)

	host := NewHost(nil)
	defer host.Close()
	api, _ := testSurface(t)
	handle, err := host.LoadPackage("battle", []string{"battle"}, dir, api)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}

	cb, err := NewCallback(host, handle, "double", 1,
		func(vm *lua.LState, n int) []lua.LValue { return []lua.LValue{lua.LNumber(n)} },
		func(results []lua.LValue) int { return int(lua.LVAsNumber(results[0])) },
	)
	if err != nil {
		t.Fatalf("NewCallback: %v", err)
	}

	got, err := cb.Call(host, 21)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != 42 {
		t.Errorf("expected double(21) == 42, got %d", got)
	}

	if _, err := NewCallback(host, handle, "not_defined", 0, nil, nil); err == nil {
		t.Errorf("expected NewCallback to fail resolving an undefined global")
	}
}

func TestBindSpawnAndQueryEntity(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "main.lua", `
function spawn_and_check()
  local id = spawn_entity(1, 4, 2)
  local e = get_entity(id)
  return id, e.x, e.y, e.team
end
`)

	host := NewHost(nil)
	defer host.Close()
	api, _ := testSurface(t)
	handle, err := host.LoadPackage("battle", []string{"battle"}, dir, api)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}

	results, err := host.CallGlobal(handle, "spawn_and_check", 4, nil)
	if err != nil {
		t.Fatalf("CallGlobal: %v", err)
	}
	if x := lua.LVAsNumber(results[1]); x != 4 {
		t.Errorf("expected spawned entity x == 4, got %v", x)
	}
	if y := lua.LVAsNumber(results[2]); y != 2 {
		t.Errorf("expected spawned entity y == 2, got %v", y)
	}
	if team := field.Team(lua.LVAsNumber(results[3])); team != 1 {
		t.Errorf("expected spawned entity team == 1, got %v", team)
	}
}
