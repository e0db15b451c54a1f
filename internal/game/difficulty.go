package game

import (
	"fmt"
	"strings"
)

// Config fixes the size and time limit of a session.
type Config struct {
	Difficulty       string `json:"difficulty"`
	PairCount        int    `json:"pairCount"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

// Difficulty names.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// Difficulties is the fixed difficulty table.
var Difficulties = map[string]Config{
	Easy:   {Difficulty: Easy, PairCount: 6, TimeLimitSeconds: 60},
	Medium: {Difficulty: Medium, PairCount: 8, TimeLimitSeconds: 45},
	Hard:   {Difficulty: Hard, PairCount: 10, TimeLimitSeconds: 30},
}

// DifficultyNames lists the table keys from easiest to hardest.
var DifficultyNames = []string{Easy, Medium, Hard}

// LookupDifficulty returns the config for name, case-insensitively.
func LookupDifficulty(name string) (Config, error) {
	cfg, ok := Difficulties[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Config{}, fmt.Errorf("unknown difficulty %q (want one of %s)", name, strings.Join(DifficultyNames, ", "))
	}
	return cfg, nil
}
