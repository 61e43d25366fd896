package data

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LivestockDef describes the single spawnable livestock kind.
type LivestockDef struct {
	Name         string        `yaml:"name"`
	Sprite       string        `yaml:"sprite"`
	Glyph        string        `yaml:"glyph"`
	Cost         float64       `yaml:"cost"`
	Payout       float64       `yaml:"payout"`
	Lifetime     time.Duration `yaml:"lifetime"`
	WanderEvery  time.Duration `yaml:"wander_every"`
	WanderJitter float64       `yaml:"wander_jitter"`
}

type livestockFile struct {
	Livestock LivestockDef `yaml:"livestock"`
}

// DefaultLivestock returns the built-in pig: costs 10, sells for 15 after 5s,
// shuffles up to 5 units on each axis every 100ms.
func DefaultLivestock() LivestockDef {
	return LivestockDef{
		Name:         "pig",
		Sprite:       "pig.png",
		Glyph:        "p",
		Cost:         10,
		Payout:       15,
		Lifetime:     5 * time.Second,
		WanderEvery:  100 * time.Millisecond,
		WanderJitter: 5,
	}
}

// Validate reports the first field that cannot drive the simulation.
func (d LivestockDef) Validate() error {
	switch {
	case d.Name == "":
		return errors.New("livestock: name is empty")
	case d.Sprite == "":
		return errors.New("livestock: sprite is empty")
	case d.Cost < 0:
		return fmt.Errorf("livestock %s: negative cost %v", d.Name, d.Cost)
	case d.Payout < 0:
		return fmt.Errorf("livestock %s: negative payout %v", d.Name, d.Payout)
	case d.Lifetime <= 0:
		return fmt.Errorf("livestock %s: lifetime must be positive", d.Name)
	case d.WanderEvery <= 0:
		return fmt.Errorf("livestock %s: wander_every must be positive", d.Name)
	case d.WanderJitter < 0:
		return fmt.Errorf("livestock %s: negative wander_jitter %v", d.Name, d.WanderJitter)
	}
	return nil
}

// GlyphRune returns the first rune of Glyph, or '?' when unset.
func (d LivestockDef) GlyphRune() rune {
	for _, r := range d.Glyph {
		return r
	}
	return '?'
}

// LoadLivestock loads the livestock definition from a YAML file. Fields the
// file omits keep their DefaultLivestock value.
func LoadLivestock(path string) (LivestockDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LivestockDef{}, fmt.Errorf("read livestock: %w", err)
	}
	return ParseLivestock(raw)
}

// ParseLivestock decodes a livestock YAML document.
func ParseLivestock(raw []byte) (LivestockDef, error) {
	f := livestockFile{Livestock: DefaultLivestock()}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return LivestockDef{}, fmt.Errorf("parse livestock: %w", err)
	}
	if err := f.Livestock.Validate(); err != nil {
		return LivestockDef{}, err
	}
	return f.Livestock, nil
}
