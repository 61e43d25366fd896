package component

// Position is a world-space transform, in world units.
type Position struct {
	X float64
	Y float64
}

// Player marks the single controllable avatar.
// Speed is in world units per second.
type Player struct {
	Speed float64
}

// Sprite names the image a renderer should draw for the entity.
type Sprite struct {
	ID    string
	Glyph rune
}

// Herd marks the anchor entity every livestock entity is parented under.
type Herd struct {
	Name string
}

// Livestock carries per-animal economy data fixed at spawn time.
type Livestock struct {
	Kind   string
	Cost   float64
	Payout float64
}
