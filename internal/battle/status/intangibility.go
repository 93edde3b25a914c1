package status

import "github.com/rollbacknet/battlecore/internal/battle/bcallback"

// PierceRule decides whether an incoming hit (identified by its element and
// flag bits, kept opaque to this package as a uint64) still connects while
// intangible.
type PierceRule func(hitFlags uint64) bool

// Intangibility is a timed window during which a Living ignores hits unless
// a registered PierceRule lets one through (spec.md §3 Living.intangibility,
// Glossary "Intangibility").
type Intangibility struct {
	enabled  bool
	duration int // -1 == indefinite
	rule     PierceRule

	onDeactivate []bcallback.Void
}

func (in *Intangibility) Enable(duration int, rule PierceRule) {
	in.enabled = true
	in.duration = duration
	in.rule = rule
}

func (in *Intangibility) AddDeactivateCallback(cb bcallback.Void) {
	if cb != nil {
		in.onDeactivate = append(in.onDeactivate, cb)
	}
}

// TryPierce reports whether a hit with the given flags connects despite
// intangibility being enabled. Callers should only consult this when
// Enabled() is true.
func (in *Intangibility) TryPierce(hitFlags uint64) bool {
	if in.rule == nil {
		return false
	}
	return in.rule(hitFlags)
}

func (in *Intangibility) Enabled() bool { return in.enabled }

// Update ticks the remaining duration, deactivating and returning the
// deactivation callbacks once it elapses. Like statuses, intangibility does
// not tick while time is frozen.
func (in *Intangibility) Update(frozen bool) []bcallback.Void {
	if !in.enabled || frozen {
		return nil
	}
	if in.duration < 0 {
		return nil
	}
	in.duration--
	if in.duration <= 0 {
		return in.Deactivate()
	}
	return nil
}

// Deactivate ends intangibility immediately and returns queued callbacks for
// the caller to drain.
func (in *Intangibility) Deactivate() []bcallback.Void {
	if !in.enabled {
		return nil
	}
	in.enabled = false
	in.rule = nil
	cbs := in.onDeactivate
	in.onDeactivate = nil
	return cbs
}

func (in *Intangibility) Clone() *Intangibility {
	c := *in
	c.onDeactivate = in.onDeactivate // shared callback registrations, not per-snapshot state
	return &c
}
