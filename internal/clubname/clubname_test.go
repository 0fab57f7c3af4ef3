package clubname

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clubstats/internal/core"
)

func TestNormalizeAliasVariantsMatchRoster(t *testing.T) {
	n := New(DefaultConfig())
	for raw, canonical := range DefaultConfig().Aliases {
		fromMembership := n.Normalize(raw, core.DatasetMembership)
		fromSessions := n.Normalize(raw, core.DatasetSessions)
		fromRoster := n.Normalize(canonical, core.DatasetRoster)
		if fromMembership != fromRoster || fromSessions != fromRoster {
			t.Fatalf("%q: membership=%q sessions=%q roster=%q", raw, fromMembership, fromSessions, fromRoster)
		}
		if strings.Contains(fromRoster, "community") {
			t.Fatalf("%q still contains community: %q", raw, fromRoster)
		}
	}
}

func TestNormalizeStripIsCaseSensitive(t *testing.T) {
	n := New(DefaultConfig())
	cases := []struct {
		raw  string
		tag  core.DatasetTag
		want string
	}{
		{"Mankranso community", core.DatasetRoster, "Mankranso "},
		{"Kunsu community reading club", core.DatasetRoster, "Kunsu  reading club"},
		{"Kunsu Community reading club", core.DatasetRoster, "Kunsu Community reading club"},
		{"Kunsu", core.DatasetMembership, "Kunsu  reading club"},
		{"commcommunityunity", core.DatasetRoster, ""},
	}
	for _, tc := range cases {
		if got := n.Normalize(tc.raw, tc.tag); got != tc.want {
			t.Fatalf("Normalize(%q, %s) = %q, want %q", tc.raw, tc.tag, got, tc.want)
		}
	}
}

func TestNormalizeAliasesOnlyInScope(t *testing.T) {
	n := New(DefaultConfig())
	if got := n.Normalize("Kunsu", core.DatasetRoster); got != "Kunsu" {
		t.Fatalf("roster names should not be aliased, got %q", got)
	}
}

func TestNormalizeUnknownPassesThrough(t *testing.T) {
	n := New(DefaultConfig())
	got := n.Normalize("  Odumase community club", core.DatasetSessions)
	if got != "  Odumase  club" {
		t.Fatalf("unexpected %q", got)
	}
	if n.Known("Odumase") {
		t.Fatalf("Odumase should not be known")
	}
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := DefaultConfig()
	n := New(cfg)
	cfg.Aliases["Kunsu"] = "Somewhere else"
	cfg.AliasScope[0] = core.DatasetRoster
	if got := n.Normalize("Kunsu", core.DatasetMembership); got != "Kunsu  reading club" {
		t.Fatalf("normalizer changed after config mutation: %q", got)
	}
	aliases := n.Aliases()
	aliases["Kunsu"] = "x"
	if n.Normalize("Kunsu", core.DatasetMembership) != "Kunsu  reading club" {
		t.Fatalf("Aliases must return a copy")
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	n := New(DefaultConfig())
	first := n.Normalize("Biemso No.1", core.DatasetSessions)
	for i := 0; i < 100; i++ {
		if got := n.Normalize("Biemso No.1", core.DatasetSessions); got != first {
			t.Fatalf("iteration %d: %q != %q", i, got, first)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	content := "aliases:\n  Odumase: Odumase community reading club\nstrip: \" community\"\nalias_scope: [membership]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Aliases["Odumase"] != "Odumase community reading club" || cfg.Aliases["Kunsu"] == "" {
		t.Fatalf("aliases not merged: %v", cfg.Aliases)
	}
	if cfg.Strip != " community" {
		t.Fatalf("strip = %q", cfg.Strip)
	}
	n := New(cfg)
	if got := n.Normalize("Odumase", core.DatasetMembership); got != "Odumase reading club" {
		t.Fatalf("got %q", got)
	}
	if got := n.Normalize("Odumase", core.DatasetSessions); got != "Odumase" {
		t.Fatalf("sessions outside alias scope, got %q", got)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("alias_scope: [payments]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
}

func TestNormalizeComposesAccents(t *testing.T) {
	n := New(Config{
		Aliases:    map[string]string{"Akwad\u00e9": "Akwad\u00e9 community reading club"},
		Strip:      DefaultStrip,
		AliasScope: []core.DatasetTag{core.DatasetMembership},
	})
	decomposed := "Akwade\u0301"
	want := "Akwad\u00e9  reading club"
	if got := n.Normalize(decomposed, core.DatasetMembership); got != want {
		t.Fatalf("Normalize(%q) = %q, want %q", decomposed, got, want)
	}
	if !n.Known(decomposed) {
		t.Fatalf("Known(%q) = false", decomposed)
	}
}
