package entity

// Obstacle marks an entity as a terrain hazard/prop rather than a fighter or
// a spell — present/absent only, carries no data (spec.md §3).
type Obstacle struct{}

// Artifact marks a purely cosmetic/transient entity (explosion effects,
// floating damage numbers) that participates in the update loop but never
// in attack resolution.
type Artifact struct{}

func (Obstacle) Clone() Obstacle { return Obstacle{} }
func (Artifact) Clone() Artifact { return Artifact{} }
