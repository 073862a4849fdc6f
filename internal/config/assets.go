package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AreaDef describes one room as declared in areas.yaml.
type AreaDef struct {
	Name           string `yaml:"area"`
	Background     string `yaml:"background"`
	BGLock         bool   `yaml:"bglock"`
	EvidenceMod    string `yaml:"evidence_mod"`
	LockingAllowed bool   `yaml:"locking_allowed"`
	IniswapAllowed bool   `yaml:"iniswap_allowed"`
}

// Song is one playable track with its loop length in seconds. A length of
// -1 marks a non-looping track.
type Song struct {
	Name   string `yaml:"name"`
	Length int    `yaml:"length"`
}

// MusicCategory groups songs under a header shown in the client music list.
type MusicCategory struct {
	Name  string `yaml:"category"`
	Songs []Song `yaml:"songs"`
}

// Assets holds the static game data loaded from the asset directory.
type Assets struct {
	Areas       []AreaDef
	Characters  []string
	Music       []MusicCategory
	Backgrounds []string

	// Iniswaps lists groups of character names allowed to stand in for
	// one another.
	Iniswaps [][]string

	// HDIDExempt lists hardware ids never checked against the ban history.
	HDIDExempt []string

	MOTD string
}

// LoadAssets reads every asset file under dir. Missing optional files
// (iniswaps, hdid exemptions, MOTD) load as empty; the core lists are
// required.
func LoadAssets(dir string) (*Assets, error) {
	a := &Assets{}

	if err := readYAML(filepath.Join(dir, "areas.yaml"), &a.Areas); err != nil {
		return nil, err
	}
	if len(a.Areas) == 0 {
		return nil, fmt.Errorf("load assets: areas.yaml declares no areas")
	}
	if err := readYAML(filepath.Join(dir, "characters.yaml"), &a.Characters); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, "music.yaml"), &a.Music); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, "backgrounds.yaml"), &a.Backgrounds); err != nil {
		return nil, err
	}
	if err := readOptionalYAML(filepath.Join(dir, "iniswaps.yaml"), &a.Iniswaps); err != nil {
		return nil, err
	}
	if err := readOptionalYAML(filepath.Join(dir, "hdid_exceptions.yaml"), &a.HDIDExempt); err != nil {
		return nil, err
	}

	motd, err := os.ReadFile(filepath.Join(dir, "motd.txt"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	a.MOTD = strings.TrimRight(string(motd), "\n")

	return a, nil
}

// SongNames flattens the music categories into a lookup-friendly list.
func (a *Assets) SongNames() []string {
	var names []string
	for _, cat := range a.Music {
		for _, s := range cat.Songs {
			names = append(names, s.Name)
		}
	}
	return names
}

// FindSong returns the song with the given name, case-insensitively.
func (a *Assets) FindSong(name string) (Song, bool) {
	for _, cat := range a.Music {
		for _, s := range cat.Songs {
			if strings.EqualFold(s.Name, name) {
				return s, true
			}
		}
	}
	return Song{}, false
}

// IniswapAllowed reports whether two character names may stand in for each
// other. A character always swaps with itself.
func (a *Assets) IniswapAllowed(base, swap string) bool {
	if strings.EqualFold(base, swap) {
		return true
	}
	for _, group := range a.Iniswaps {
		var hasBase, hasSwap bool
		for _, name := range group {
			if strings.EqualFold(name, base) {
				hasBase = true
			}
			if strings.EqualFold(name, swap) {
				hasSwap = true
			}
		}
		if hasBase && hasSwap {
			return true
		}
	}
	return false
}

// IsHDIDExempt reports whether the hardware id skips ban-history checks.
func (a *Assets) IsHDIDExempt(hdid string) bool {
	for _, h := range a.HDIDExempt {
		if strings.EqualFold(h, hdid) {
			return true
		}
	}
	return false
}

func readYAML(path string, target any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("load assets: parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readOptionalYAML(path string, target any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return readYAML(path, target)
}
