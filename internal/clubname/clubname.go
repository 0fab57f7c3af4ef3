// Package clubname canonicalizes reading club names so the roster, yearly
// membership and session datasets share one join key.
package clubname

import (
	"fmt"
	"os"
	"strings"

	"clubstats/internal/core"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DefaultStrip is the cosmetic token removed from every display name.
const DefaultStrip = "community"

// Config is the lookup data used by a Normalizer. It is copied on
// construction, so later changes to the maps or slices have no effect.
type Config struct {
	// Aliases maps a raw spelling to its canonical spelling. Keys match
	// whole cell values exactly.
	Aliases map[string]string
	// Strip is removed from every name, case-sensitively. Empty disables it.
	Strip string
	// AliasScope lists the datasets the alias table applies to.
	AliasScope []core.DatasetTag
}

// DefaultConfig returns the alias table for the known membership and session
// spellings.
func DefaultConfig() Config {
	return Config{
		Aliases: map[string]string{
			"Mankranso":      "Mankranso community reading club",
			"Boatenkrom":     "Boatengkrom community reading club",
			"Potrikrom":      "Potrikrom community reading club",
			"Dunyan Nkwanta": "Dunyan Nkanta community reading club",
			"Kunsu":          "Kunsu community reading club",
			"Abesewa":        "Abesewa community reading club",
			"Asempaneye":     "Asempaneye community reading club",
			"Asuadei":        "Asuadei community reading club",
			"Barniekrom":     "Barniekrom community reading clubs",
			"Biemso No.1":    "Biemso no.1 community reading club",
		},
		Strip:      DefaultStrip,
		AliasScope: []core.DatasetTag{core.DatasetMembership, core.DatasetSessions},
	}
}

// LoadConfigFile reads a YAML file and overlays it on DefaultConfig. Aliases
// in the file are added to (or replace) the defaults; strip and alias_scope
// replace the defaults when present.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read alias file: %w", err)
	}
	var file struct {
		Aliases    map[string]string `yaml:"aliases"`
		Strip      *string           `yaml:"strip"`
		AliasScope []core.DatasetTag `yaml:"alias_scope"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	for raw, canonical := range file.Aliases {
		cfg.Aliases[raw] = canonical
	}
	if file.Strip != nil {
		cfg.Strip = *file.Strip
	}
	if file.AliasScope != nil {
		for _, tag := range file.AliasScope {
			if !tag.IsValid() {
				return cfg, fmt.Errorf("parse alias file %s: unknown dataset %q in alias_scope", path, tag)
			}
		}
		cfg.AliasScope = file.AliasScope
	}
	return cfg, nil
}

// Normalizer maps raw club names to canonical names. It is safe for
// concurrent use; its state never changes after New.
type Normalizer struct {
	aliases map[string]string
	strip   string
	scope   map[core.DatasetTag]bool
}

// New builds a Normalizer from cfg.
func New(cfg Config) *Normalizer {
	n := &Normalizer{
		aliases: make(map[string]string, len(cfg.Aliases)),
		strip:   cfg.Strip,
		scope:   make(map[core.DatasetTag]bool, len(cfg.AliasScope)),
	}
	for raw, canonical := range cfg.Aliases {
		n.aliases[norm.NFC.String(raw)] = norm.NFC.String(canonical)
	}
	for _, tag := range cfg.AliasScope {
		n.scope[tag] = true
	}
	return n
}

// Normalize returns the canonical name for raw as found in dataset tag.
// Unknown names are not an error: they only get the strip applied. Input is
// put in Unicode NFC first, so composed and decomposed accents match.
func (n *Normalizer) Normalize(raw string, tag core.DatasetTag) string {
	name := norm.NFC.String(raw)
	if n.scope[tag] {
		if canonical, ok := n.aliases[name]; ok {
			name = canonical
		}
	}
	if n.strip == "" {
		return name
	}
	// Removing one occurrence can join its neighbours into another.
	for strings.Contains(name, n.strip) {
		name = strings.ReplaceAll(name, n.strip, "")
	}
	return name
}

// Known reports whether raw is a key of the alias table.
func (n *Normalizer) Known(raw string) bool {
	_, ok := n.aliases[norm.NFC.String(raw)]
	return ok
}

// Aliases returns a copy of the alias table.
func (n *Normalizer) Aliases() map[string]string {
	out := make(map[string]string, len(n.aliases))
	for k, v := range n.aliases {
		out[k] = v
	}
	return out
}
