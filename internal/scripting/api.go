package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/rollbacknet/battlecore/internal/battle/combat"
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/field"
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// Surface is the dynamic API a package VM sees (spec.md §4.9 "what scripts
// see"). Current points at whichever *sim.BattleSimulation is live this
// frame rather than a fixed pointer, since the rollback controller swaps
// the active simulation wholesale on rewind/resimulate — VMs and their
// global state persist across that swap, so the surface resolves the
// target lazily on every call instead of capturing one instance at load
// time.
type Surface struct {
	Current func() *sim.BattleSimulation
}

// bind registers every Surface operation as a Lua global in vm. Each
// closure re-resolves api.Current() on every call.
func bind(vm *lua.LState, api Surface) {
	vm.SetGlobal("spawn_entity", vm.NewFunction(func(L *lua.LState) int {
		team := field.Team(L.CheckInt(1))
		x, y := L.CheckInt(2), L.CheckInt(3)
		s := api.Current()
		id := s.SpawnEntity(&entity.Entity{Team: team, X: x, Y: y})
		L.Push(lua.LNumber(id))
		return 1
	}))

	vm.SetGlobal("get_entity", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		s := api.Current()
		e, ok := s.Entity(id)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		t.RawSetString("team", lua.LNumber(e.Team))
		t.RawSetString("facing", lua.LNumber(e.Facing))
		t.RawSetString("x", lua.LNumber(e.X))
		t.RawSetString("y", lua.LNumber(e.Y))
		t.RawSetString("elevation", lua.LNumber(e.Elevation))
		t.RawSetString("deleted", lua.LBool(e.Deleted))
		t.RawSetString("spawned", lua.LBool(e.Spawned))
		t.RawSetString("on_field", lua.LBool(e.OnField))
		L.Push(t)
		return 1
	}))

	vm.SetGlobal("set_entity_position", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		x, y := L.CheckInt(2), L.CheckInt(3)
		if e, ok := api.Current().Entity(id); ok {
			e.X, e.Y = x, y
		}
		return 0
	}))

	vm.SetGlobal("set_entity_facing", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		facing := field.Direction(L.CheckInt(2))
		if e, ok := api.Current().Entity(id); ok {
			e.Facing = facing
		}
		return 0
	}))

	vm.SetGlobal("queue_movement", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		destX, destY := L.CheckInt(2), L.CheckInt(3)
		kind := entity.MovementKind(L.CheckInt(4))
		duration := L.CheckInt(5)
		endlag := L.OptInt(6, 0)

		var m *entity.Movement
		switch kind {
		case entity.MovementTeleport:
			m = entity.NewTeleport(destX, destY, duration)
		case entity.MovementJump:
			height := float64(L.OptNumber(7, 0))
			m = entity.NewJump(destX, destY, duration, height, endlag)
		default:
			m = entity.NewSlide(destX, destY, duration, endlag)
		}
		api.Current().SetMovement(id, m)
		return 0
	}))

	vm.SetGlobal("queue_attack", vm.NewFunction(func(L *lua.LState) int {
		attacker := ecs.EntityID(L.CheckInt64(1))
		x, y := L.CheckInt(2), L.CheckInt(3)
		damage := L.CheckInt(4)
		elementVal := L.OptInt(5, int(field.ElementNone))
		flags := entity.HitFlag(L.OptInt64(6, 0))

		api.Current().QueueAttack(combat.AttackBox{
			Attacker: attacker,
			Props: entity.HitProps{
				Damage:   damage,
				Element:  field.Element(elementVal),
				Flags:    flags,
				Attacker: attacker,
			},
			Tiles: []combat.TilePos{{X: x, Y: y}},
		})
		return 0
	}))

	vm.SetGlobal("bind_aux_prop", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		key := L.CheckString(2)
		hitRelated := L.OptBool(3, false)
		dropAfterHit := L.OptBool(4, false)
		modifyFn, _ := L.Get(5).(*lua.LFunction)

		living, ok := api.Current().Living(id)
		if !ok {
			L.Push(lua.LFalse)
			return 1
		}
		prop := entity.AuxProp{Key: key, HitRelated: hitRelated, DropAfterHit: dropAfterHit}
		if modifyFn != nil {
			prop.Modify = func(props *entity.HitProps) {
				callHitModifier(L, modifyFn, props)
			}
		}
		err := living.BindAuxProp(prop)
		L.Push(lua.LBool(err == nil))
		return 1
	}))

	vm.SetGlobal("set_character_name", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		name := L.CheckString(2)
		if ch, ok := api.Current().Character(id); ok {
			ch.SetDisplayName(name)
		}
		return 0
	}))

	vm.SetGlobal("register_defense_rule", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckInt64(1))
		order := entity.DefenseOrder(L.CheckInt(2))
		priority := L.OptInt(3, 0)
		applyFn := L.CheckFunction(4)

		living, ok := api.Current().Living(id)
		if !ok {
			return 0
		}
		living.AddDefenseRule(entity.DefenseRule{
			Order:    order,
			Priority: priority,
			Apply: func(props *entity.HitProps) (blocked bool, consumedDrag bool) {
				return callDefenseRule(L, applyFn, props)
			},
		})
		return 0
	}))

	for slot, bind := range lifecycleSlots {
		slotName, assign := slot, bind
		vm.SetGlobal("set_"+slotName+"_callback", vm.NewFunction(func(L *lua.LState) int {
			id := ecs.EntityID(L.CheckInt64(1))
			fnName := L.CheckString(2)
			fn, ok := L.GetGlobal(fnName).(*lua.LFunction)
			if !ok {
				L.Push(lua.LFalse)
				return 1
			}
			e, ok := api.Current().Entity(id)
			if !ok {
				L.Push(lua.LFalse)
				return 1
			}
			assign(e, func() {
				L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(id))
			})
			L.Push(lua.LTrue)
			return 1
		}))
	}
}

// lifecycleSlots maps a Lua-facing slot name to the Entity field it
// installs a zero-argument (besides the entity id) callback into (spec.md
// §3 Entity "spawn/update/idle/delete/battle-start callbacks").
var lifecycleSlots = map[string]func(e *entity.Entity, cb func()){
	"spawn":        func(e *entity.Entity, cb func()) { e.OnSpawn = cb },
	"update":       func(e *entity.Entity, cb func()) { e.OnUpdate = cb },
	"idle":         func(e *entity.Entity, cb func()) { e.OnIdle = cb },
	"delete":       func(e *entity.Entity, cb func()) { e.OnDelete = cb },
	"battle_start": func(e *entity.Entity, cb func()) { e.OnBattleStart = cb },
}

func callHitModifier(L *lua.LState, fn *lua.LFunction, props *entity.HitProps) {
	t := hitPropsToTable(L, props)
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		return
	}
	result := L.Get(-1)
	L.Pop(1)
	if rt, ok := result.(*lua.LTable); ok {
		tableToHitProps(rt, props)
	}
}

func callDefenseRule(L *lua.LState, fn *lua.LFunction, props *entity.HitProps) (blocked, consumedDrag bool) {
	t := hitPropsToTable(L, props)
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		return false, false
	}
	result := L.Get(-1)
	L.Pop(1)
	rt, ok := result.(*lua.LTable)
	if !ok {
		return false, false
	}
	tableToHitProps(rt, props)
	return rt.RawGetString("blocked") == lua.LTrue, rt.RawGetString("consumed_drag") == lua.LTrue
}

func hitPropsToTable(L *lua.LState, props *entity.HitProps) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("damage", lua.LNumber(props.Damage))
	t.RawSetString("element", lua.LNumber(props.Element))
	t.RawSetString("flags", lua.LNumber(props.Flags))
	t.RawSetString("attacker", lua.LNumber(props.Attacker))
	return t
}

func tableToHitProps(t *lua.LTable, props *entity.HitProps) {
	props.Damage = int(lua.LVAsNumber(t.RawGetString("damage")))
	props.Element = field.Element(lua.LVAsNumber(t.RawGetString("element")))
	props.Flags = entity.HitFlag(lua.LVAsNumber(t.RawGetString("flags")))
}
