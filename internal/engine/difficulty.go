package engine

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// StrengthProfile is the engine-native rendering of a requested Elo: the
// Skill Level option plus how many principal variations to ask for.
type StrengthProfile struct {
	SkillLevel int
	MultiPV    int
}

type difficultyTier struct {
	MaxElo  int
	Profile StrengthProfile
}

// The strength-emulation policy. Evaluated top to bottom, first match wins.
// The skill-level jumps (5 to 8 to 9 to 10) and the MultiPV collapse to 1
// above 500 are deliberate.
var defaultTiers = []difficultyTier{
	{MaxElo: 100, Profile: StrengthProfile{SkillLevel: 0, MultiPV: 5}},
	{MaxElo: 500, Profile: StrengthProfile{SkillLevel: 1, MultiPV: 3}},
	{MaxElo: 800, Profile: StrengthProfile{SkillLevel: 2, MultiPV: 1}},
	{MaxElo: 1100, Profile: StrengthProfile{SkillLevel: 3, MultiPV: 1}},
	{MaxElo: 1400, Profile: StrengthProfile{SkillLevel: 4, MultiPV: 1}},
	{MaxElo: 1700, Profile: StrengthProfile{SkillLevel: 5, MultiPV: 1}},
	{MaxElo: 2100, Profile: StrengthProfile{SkillLevel: 8, MultiPV: 1}},
	{MaxElo: 2500, Profile: StrengthProfile{SkillLevel: 9, MultiPV: 1}},
}

var defaultTopProfile = StrengthProfile{SkillLevel: 10, MultiPV: 1}

// DifficultyMapper maps a requested Elo to a StrengthProfile. Immutable after
// construction.
type DifficultyMapper struct {
	tiers []difficultyTier
	top   StrengthProfile
}

func NewDifficultyMapper() *DifficultyMapper {
	return &DifficultyMapper{
		tiers: append([]difficultyTier(nil), defaultTiers...),
		top:   defaultTopProfile,
	}
}

// Map returns the profile for the first tier whose MaxElo covers elo, or the
// top profile when none does.
func (m *DifficultyMapper) Map(elo int) StrengthProfile {
	for _, tier := range m.tiers {
		if elo <= tier.MaxElo {
			return tier.Profile
		}
	}
	return m.top
}

type tierFile struct {
	Tiers []struct {
		MaxElo     int `yaml:"max_elo"`
		SkillLevel int `yaml:"skill_level"`
		MultiPV    int `yaml:"multipv"`
	} `yaml:"tiers"`
	Top *struct {
		SkillLevel int `yaml:"skill_level"`
		MultiPV    int `yaml:"multipv"`
	} `yaml:"top"`
}

// LoadDifficultyMapper builds a mapper from an optional YAML override file.
// An empty path keeps the built-in table unchanged.
func LoadDifficultyMapper(path string) (*DifficultyMapper, error) {
	m := NewDifficultyMapper()
	if path == "" {
		return m, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read difficulty profile: %w", err)
	}
	var f tierFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse difficulty profile: %w", err)
	}

	if len(f.Tiers) > 0 {
		tiers := make([]difficultyTier, 0, len(f.Tiers))
		for i, t := range f.Tiers {
			if t.SkillLevel < 0 || t.SkillLevel > 20 {
				return nil, fmt.Errorf("tier %d: skill level %d out of range 0-20", i, t.SkillLevel)
			}
			if t.MultiPV <= 0 {
				return nil, fmt.Errorf("tier %d: multipv must be > 0: %d", i, t.MultiPV)
			}
			tiers = append(tiers, difficultyTier{
				MaxElo:  t.MaxElo,
				Profile: StrengthProfile{SkillLevel: t.SkillLevel, MultiPV: t.MultiPV},
			})
		}
		if !sort.SliceIsSorted(tiers, func(i, j int) bool { return tiers[i].MaxElo < tiers[j].MaxElo }) {
			return nil, fmt.Errorf("difficulty tiers must be in ascending max_elo order")
		}
		m.tiers = tiers
	}
	if f.Top != nil {
		if f.Top.SkillLevel < 0 || f.Top.SkillLevel > 20 {
			return nil, fmt.Errorf("top tier: skill level %d out of range 0-20", f.Top.SkillLevel)
		}
		if f.Top.MultiPV <= 0 {
			return nil, fmt.Errorf("top tier: multipv must be > 0: %d", f.Top.MultiPV)
		}
		m.top = StrengthProfile{SkillLevel: f.Top.SkillLevel, MultiPV: f.Top.MultiPV}
	}
	return m, nil
}
