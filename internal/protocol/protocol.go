// Package protocol defines the JSON messages streamed to external renderers.
package protocol

// Version is bumped on any incompatible message change.
const Version = "1.0"

const (
	TypeSnapshot = "SNAPSHOT"
	TypeSpawn    = "SPAWN"
	TypeDespawn  = "DESPAWN"
	TypeFrame    = "FRAME"
)

// Transform places one entity in world space.
type Transform struct {
	Entity uint64  `json:"entity"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Sprite is a render request: draw Sprite at the transform until a DESPAWN
// for the same entity arrives.
type Sprite struct {
	Transform
	Sprite string `json:"sprite"`
}

// SpawnMsg announces a new livestock entity.
type SpawnMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Sprite          Sprite  `json:"livestock"`
	Balance         float64 `json:"balance"`
}

// DespawnMsg removes a livestock entity from the scene.
type DespawnMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Entity          uint64  `json:"entity"`
	Payout          float64 `json:"payout"`
	Balance         float64 `json:"balance"`
}

// FrameMsg carries the current transforms of the player and every animal.
type FrameMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	Balance         float64     `json:"balance"`
	Player          *Transform  `json:"player,omitempty"`
	Livestock       []Transform `json:"livestock"`
}

// SnapshotMsg is sent once when an observer joins.
type SnapshotMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	RunID           string   `json:"run_id"`
	Tick            uint64   `json:"tick"`
	Balance         float64  `json:"balance"`
	Livestock       []Sprite `json:"livestock"`
}

// BootstrapResponse answers GET /bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string  `json:"protocol_version"`
	RunID           string  `json:"run_id"`
	Tick            uint64  `json:"tick"`
	Balance         float64 `json:"balance"`
	Livestock       int     `json:"livestock"`
}

func NewSpawn(tick uint64, s Sprite, balance float64) SpawnMsg {
	return SpawnMsg{Type: TypeSpawn, ProtocolVersion: Version, Tick: tick, Sprite: s, Balance: balance}
}

func NewDespawn(tick, entity uint64, payout, balance float64) DespawnMsg {
	return DespawnMsg{Type: TypeDespawn, ProtocolVersion: Version, Tick: tick, Entity: entity, Payout: payout, Balance: balance}
}

func NewFrame(tick uint64, balance float64, player *Transform, livestock []Transform) FrameMsg {
	if livestock == nil {
		livestock = []Transform{}
	}
	return FrameMsg{Type: TypeFrame, ProtocolVersion: Version, Tick: tick, Balance: balance, Player: player, Livestock: livestock}
}

func NewSnapshot(runID string, tick uint64, balance float64, livestock []Sprite) SnapshotMsg {
	if livestock == nil {
		livestock = []Sprite{}
	}
	return SnapshotMsg{Type: TypeSnapshot, ProtocolVersion: Version, RunID: runID, Tick: tick, Balance: balance, Livestock: livestock}
}
