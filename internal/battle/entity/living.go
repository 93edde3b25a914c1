package entity

import (
	"sort"

	"github.com/rollbacknet/battlecore/internal/battle/berr"
	"github.com/rollbacknet/battlecore/internal/battle/status"
)

// Living is the component carried by anything that can take damage:
// characters, obstacles that can be destroyed, some spells (spec.md §3
// Living).
type Living struct {
	MaxHealth int
	Health    int

	HitboxEnabled bool
	Counterable   bool

	Intangibility *status.Intangibility
	Statuses      *status.Director

	defenseRules []DefenseRule
	auxProps     map[string]AuxProp

	hitQueue []HitProps
}

func NewLiving(maxHealth int, statusRegistry *status.Registry) *Living {
	return &Living{
		MaxHealth:     maxHealth,
		Health:        maxHealth,
		HitboxEnabled: true,
		Intangibility: &status.Intangibility{},
		Statuses:      status.NewDirector(statusRegistry),
		auxProps:      make(map[string]AuxProp),
	}
}

func (l *Living) Dead() bool { return l.Health <= 0 }

// AddDefenseRule registers a rule consulted during execute_attacks' defense
// pass. Registration order is preserved as a tiebreak when two rules share
// an Order and Priority.
func (l *Living) AddDefenseRule(rule DefenseRule) {
	l.defenseRules = append(l.defenseRules, rule)
}

// DefenseRules returns the registered rules for a given order, sorted by
// Priority ascending (stable, so registration order breaks ties).
func (l *Living) DefenseRules(order DefenseOrder) []DefenseRule {
	var out []DefenseRule
	for _, r := range l.defenseRules {
		if r.Order == order {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// BindAuxProp registers a new auxiliary property. Re-binding an already
// bound key is a caller error (spec.md berr.AuxPropAlreadyBound) rather than
// a silent overwrite, since aux props often carry one-shot trigger state.
func (l *Living) BindAuxProp(prop AuxProp) error {
	if _, exists := l.auxProps[prop.Key]; exists {
		return berr.AuxPropAlreadyBound{Key: prop.Key}
	}
	l.auxProps[prop.Key] = prop
	return nil
}

func (l *Living) AuxProp(key string) (AuxProp, bool) {
	p, ok := l.auxProps[key]
	return p, ok
}

func (l *Living) RemoveAuxProp(key string) { delete(l.auxProps, key) }

// DropHitRelatedAuxProps removes every aux prop flagged both HitRelated and
// DropAfterHit, run
// once per completed attack pass (spec.md §4.5 step 7).
func (l *Living) DropHitRelatedAuxProps() {
	for k, p := range l.auxProps {
		if p.HitRelated && p.DropAfterHit {
			delete(l.auxProps, k)
		}
	}
}

// ApplyAuxModifiers runs every aux prop's Modify hook against props, in an
// arbitrary but stable (key-sorted) order so resimulation is deterministic.
func (l *Living) ApplyAuxModifiers(props *HitProps) {
	keys := make([]string, 0, len(l.auxProps))
	for k := range l.auxProps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := l.auxProps[k]
		if p.Modify != nil {
			p.Modify(props)
		}
	}
}

// QueueHit appends a hit to be consolidated by ProcessHits at the
// documented point in execute_attacks (spec.md §4.4, §4.5 step 6).
func (l *Living) QueueHit(props HitProps) {
	l.hitQueue = append(l.hitQueue, props)
}

// ProcessHits consolidates every hit queued this frame into a health delta
// and returns the consolidated list for callers that need per-hit callback
// dispatch (status application, counter checks). The queue is emptied.
func (l *Living) ProcessHits() []HitProps {
	if len(l.hitQueue) == 0 {
		return nil
	}
	hits := l.hitQueue
	l.hitQueue = nil
	for _, h := range hits {
		l.Health -= h.Damage
	}
	if l.Health < 0 {
		l.Health = 0
	}
	return hits
}

func (l *Living) Clone() *Living {
	c := &Living{
		MaxHealth:     l.MaxHealth,
		Health:        l.Health,
		HitboxEnabled: l.HitboxEnabled,
		Counterable:   l.Counterable,
		Intangibility: l.Intangibility.Clone(),
		Statuses:      l.Statuses.Clone(),
		defenseRules:  append([]DefenseRule(nil), l.defenseRules...),
		auxProps:      make(map[string]AuxProp, len(l.auxProps)),
		hitQueue:      append([]HitProps(nil), l.hitQueue...),
	}
	for k, v := range l.auxProps {
		c.auxProps[k] = v
	}
	return c
}
