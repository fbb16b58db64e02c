// Package gamepack loads and compiles trainer matching rules from the embedded games.json.
// It prepares per-game regex matchers and label lookups for the scanner
package gamepack

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/normalize"
)

//go:embed games.json
var embedded []byte

// DefaultMultiplier widens the suppression window around an accepted
// detection to this many scan steps
const DefaultMultiplier = 2

// Region is a pixel rectangle inside the source frame
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r Region) valid() bool { return r.W > 0 && r.H > 0 && r.X >= 0 && r.Y >= 0 }

type rawProfile struct {
	Patterns []string `json:"patterns"`
	Fallback string   `json:"fallback,omitempty"`
	Deny     []string `json:"deny,omitempty"`
}

type rawKeyRule struct {
	Patterns   []string `json:"patterns,omitempty"`
	Requires   []string `json:"requires,omitempty"`
	Multiplier int      `json:"multiplier,omitempty"`
}

type rawGame struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Generation int      `json:"generation"`
	Platform   string   `json:"platform"`
	Profile    string   `json:"profile"`
	Playfield  Region   `json:"playfield"`
	Nameplate  Region   `json:"nameplate"`
	Keys       []string `json:"keys"`
}

type rawPack struct {
	Version      int                   `json:"version"`
	DefaultLabel string                `json:"default_label"`
	Labels       map[string]string     `json:"labels"`
	Profiles     map[string]rawProfile `json:"profiles"`
	Keys         map[string]rawKeyRule `json:"keys"`
	Games        []rawGame             `json:"games"`
}

// Matcher is the compiled recognition rule for one trainer key.
// A key matches a frame's text when all required substrings are present,
// or any pattern fires, or the fallback fires and no deny pattern does
type Matcher struct {
	Key        string
	Multiplier int

	requires []string
	patterns []*regexp.Regexp
	fallback *regexp.Regexp
	deny     []*regexp.Regexp
}

// Match reports whether any projection of the recognized text names this key
func (m *Matcher) Match(p normalize.Projections) bool {
	for _, text := range []string{p.Base, p.Bare, p.Confusable} {
		if text == "" {
			continue
		}
		if m.matchOne(text) {
			return true
		}
	}
	return false
}

func (m *Matcher) matchOne(text string) bool {
	if len(m.requires) > 0 {
		all := true
		for _, sub := range m.requires {
			if !strings.Contains(text, sub) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	for _, re := range m.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	if m.fallback != nil {
		for _, re := range m.deny {
			if re.MatchString(text) {
				return false
			}
		}
		return m.fallback.MatchString(text)
	}
	return false
}

// Game is one compiled title entry: crop regions plus a matcher per key
type Game struct {
	ID         string
	Name       string
	Generation int
	Platform   string
	Profile    string
	Playfield  Region
	Nameplate  Region

	// Keys preserves games.json order; scanners walk it so matches
	// come out deterministic
	Keys []string

	matchers map[string]*Matcher
}

// Matcher returns the compiled matcher for key, if the game carries it
func (g *Game) Matcher(key string) (*Matcher, bool) {
	m, ok := g.matchers[key]
	return m, ok
}

// MatchAll returns every key whose matcher fires on the projections,
// in Keys order
func (g *Game) MatchAll(p normalize.Projections) []string {
	var hits []string
	for _, k := range g.Keys {
		if g.matchers[k].Match(p) {
			hits = append(hits, k)
		}
	}
	return hits
}

// Restrict returns a view of the game that walks only the given keys,
// in the order given. Unknown keys error so a typoed trainer list fails
// loudly instead of silently matching nothing. Empty keys return g
func (g *Game) Restrict(keys []string) (*Game, error) {
	if len(keys) == 0 {
		return g, nil
	}
	sub := *g
	sub.Keys = make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if _, ok := g.matchers[k]; !ok {
			return nil, fmt.Errorf("gamepack: game %q has no key %q", g.ID, k)
		}
		sub.Keys = append(sub.Keys, k)
	}
	return &sub, nil
}

// Pack is the compiled games.json: label table plus per-game matchers
type Pack struct {
	Version      int
	DefaultLabel string

	labels map[string]string
	games  map[string]*Game
	ids    []string
}

// Load returns the compiled pack from the embedded games.json
func Load() (*Pack, error) {
	return loadBytes(embedded)
}

// FromJSON compiles a pack from raw games.json bytes. The pack linter
// runs candidate files through it before they replace the embedded copy
func FromJSON(raw []byte) (*Pack, error) {
	return loadBytes(raw)
}

func loadBytes(raw []byte) (*Pack, error) {
	var rp rawPack
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil, fmt.Errorf("gamepack: parse games.json: %w", err)
	}
	if rp.Version != 1 {
		return nil, fmt.Errorf("gamepack: unsupported games.json version %d (want 1)", rp.Version)
	}
	if strings.TrimSpace(rp.DefaultLabel) == "" {
		return nil, fmt.Errorf("gamepack: default_label missing")
	}
	if len(rp.Games) == 0 {
		return nil, fmt.Errorf("gamepack: no games defined")
	}

	p := &Pack{
		Version:      rp.Version,
		DefaultLabel: rp.DefaultLabel,
		labels:       make(map[string]string, len(rp.Labels)),
		games:        make(map[string]*Game, len(rp.Games)),
	}
	for k, v := range rp.Labels {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("gamepack: empty label entry %q=%q", k, v)
		}
		p.labels[k] = v
	}

	for _, rg := range rp.Games {
		g, err := compileGame(rg, rp.Profiles, rp.Keys)
		if err != nil {
			return nil, err
		}
		if _, dup := p.games[g.ID]; dup {
			return nil, fmt.Errorf("gamepack: duplicate game id %q", g.ID)
		}
		p.games[g.ID] = g
		p.ids = append(p.ids, g.ID)
	}
	sort.Strings(p.ids)

	return p, nil
}

func compileGame(rg rawGame, profiles map[string]rawProfile, overrides map[string]rawKeyRule) (*Game, error) {
	id := strings.ToLower(strings.TrimSpace(rg.ID))
	if id == "" {
		return nil, fmt.Errorf("gamepack: game with empty id")
	}
	if strings.TrimSpace(rg.Name) == "" {
		return nil, fmt.Errorf("gamepack: game %q: name missing", id)
	}
	if rg.Platform != "nds" && rg.Platform != "gba" {
		return nil, fmt.Errorf("gamepack: game %q: unknown platform %q", id, rg.Platform)
	}
	if rg.Generation < 3 || rg.Generation > 5 {
		return nil, fmt.Errorf("gamepack: game %q: unsupported generation %d", id, rg.Generation)
	}
	if !rg.Playfield.valid() || !rg.Nameplate.valid() {
		return nil, fmt.Errorf("gamepack: game %q: degenerate region", id)
	}
	prof, ok := profiles[rg.Profile]
	if !ok {
		return nil, fmt.Errorf("gamepack: game %q: unknown profile %q", id, rg.Profile)
	}
	if len(rg.Keys) == 0 {
		return nil, fmt.Errorf("gamepack: game %q: no keys", id)
	}

	g := &Game{
		ID:         id,
		Name:       rg.Name,
		Generation: rg.Generation,
		Platform:   rg.Platform,
		Profile:    rg.Profile,
		Playfield:  rg.Playfield,
		Nameplate:  rg.Nameplate,
		matchers:   make(map[string]*Matcher, len(rg.Keys)),
	}
	for _, rawKey := range rg.Keys {
		key := strings.ToLower(strings.TrimSpace(rawKey))
		if key == "" {
			return nil, fmt.Errorf("gamepack: game %q: empty key", id)
		}
		if _, dup := g.matchers[key]; dup {
			return nil, fmt.Errorf("gamepack: game %q: duplicate key %q", id, key)
		}
		m, err := compileMatcher(key, prof, overrides)
		if err != nil {
			return nil, fmt.Errorf("gamepack: game %q: %w", id, err)
		}
		g.Keys = append(g.Keys, key)
		g.matchers[key] = m
	}
	return g, nil
}

func compileMatcher(key string, prof rawProfile, overrides map[string]rawKeyRule) (*Matcher, error) {
	m := &Matcher{Key: key, Multiplier: DefaultMultiplier}

	if ov, ok := overrides[key]; ok {
		if ov.Multiplier > 0 {
			m.Multiplier = ov.Multiplier
		}
		for _, sub := range ov.Requires {
			sub = strings.ToLower(strings.TrimSpace(sub))
			if sub == "" {
				return nil, fmt.Errorf("key %q: empty requires entry", key)
			}
			m.requires = append(m.requires, sub)
		}
		for _, pat := range ov.Patterns {
			re, err := compileKeyPattern(pat, key)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			m.patterns = append(m.patterns, re)
		}
		// An override replaces the profile rules outright
		if len(m.requires) > 0 || len(m.patterns) > 0 {
			return m, nil
		}
	}

	for _, pat := range prof.Patterns {
		re, err := compileKeyPattern(pat, key)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		m.patterns = append(m.patterns, re)
	}
	if prof.Fallback != "" {
		re, err := compileKeyPattern(prof.Fallback, key)
		if err != nil {
			return nil, fmt.Errorf("key %q: fallback: %w", key, err)
		}
		m.fallback = re
	}
	for _, pat := range prof.Deny {
		re, err := compileKeyPattern(pat, key)
		if err != nil {
			return nil, fmt.Errorf("key %q: deny: %w", key, err)
		}
		m.deny = append(m.deny, re)
	}
	if len(m.patterns) == 0 && m.fallback == nil {
		return nil, fmt.Errorf("key %q: no rules after compile", key)
	}
	return m, nil
}

// compileKeyPattern replaces {KEY} with the regex-quoted key and compiles.
// Patterns are authored against normalized (lowercased) text
func compileKeyPattern(pattern, key string) (*regexp.Regexp, error) {
	exp := strings.ReplaceAll(pattern, "{KEY}", regexp.QuoteMeta(key))
	re, err := regexp.Compile(strings.ToLower(exp))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", exp, err)
	}
	return re, nil
}

// Label returns the export label for a trainer key, defaulting when unmapped
func (p *Pack) Label(key string) string {
	if v, ok := p.labels[strings.ToLower(strings.TrimSpace(key))]; ok {
		return v
	}
	return p.DefaultLabel
}

// Game returns the compiled entry for a game id
func (p *Pack) Game(id string) (*Game, bool) {
	g, ok := p.games[strings.ToLower(strings.TrimSpace(id))]
	return g, ok
}

// GameIDs returns all game ids in sorted order
func (p *Pack) GameIDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}
