package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ranchsim/server/internal/protocol"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", name))
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func decode(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestMessagesMatchSchemas(t *testing.T) {
	pig := protocol.Sprite{Transform: protocol.Transform{Entity: 3, X: 1.5, Y: -2}, Sprite: "pig.png"}
	player := &protocol.Transform{Entity: 1, X: 0, Y: 0}

	cases := []struct {
		schema string
		msg    any
	}{
		{"spawn.schema.json", protocol.NewSpawn(12, pig, 90)},
		{"despawn.schema.json", protocol.NewDespawn(313, 3, 15, 105)},
		{"frame.schema.json", protocol.NewFrame(20, 90, player, []protocol.Transform{pig.Transform})},
		{"frame.schema.json", protocol.NewFrame(0, 100, nil, nil)},
		{"snapshot.schema.json", protocol.NewSnapshot("run", 5, 80, []protocol.Sprite{pig})},
		{"snapshot.schema.json", protocol.NewSnapshot("run", 0, 100, nil)},
	}
	for _, c := range cases {
		if err := compile(t, c.schema).Validate(decode(t, c.msg)); err != nil {
			t.Errorf("%s: %v", c.schema, err)
		}
	}
}

func TestSchemasRejectMalformed(t *testing.T) {
	spawn := compile(t, "spawn.schema.json")
	bad := map[string]any{
		"type": "SPAWN", "protocol_version": "1.0", "tick": 1, "balance": -5,
		"livestock": map[string]any{"entity": 2, "x": 0, "y": 0, "sprite": "pig.png"},
	}
	if err := spawn.Validate(decode(t, bad)); err == nil {
		t.Error("negative balance accepted")
	}
	noSprite := map[string]any{
		"type": "SPAWN", "protocol_version": "1.0", "tick": 1, "balance": 5,
		"livestock": map[string]any{"entity": 2, "x": 0, "y": 0},
	}
	if err := spawn.Validate(decode(t, noSprite)); err == nil {
		t.Error("spawn without sprite accepted")
	}
}
