// Package profiles loads the pre-computed statistical inputs of a run: client
// action profiles, per-step action profiles, the initial balance distribution
// and the overdraft table.
package profiles

import (
	"embed"
	"fmt"
	"os"

	"github.com/nvandessel/txsim/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_profiles.yaml
var defaults embed.FS

// ClientProfile is an agent action profile plus its share of the client
// population.
type ClientProfile struct {
	models.ActionProfile `yaml:",inline"`

	// Frequency is the relative share of clients assigned this profile.
	// When every profile has a zero frequency, profiles are assigned uniformly.
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

// Bundle is the full set of profiles a run reads from.
type Bundle struct {
	Clients []ClientProfile      `json:"clients" yaml:"clients"`
	Steps   []models.StepProfile `json:"steps" yaml:"steps"`

	// Period, when positive, repeats the step profiles every Period steps,
	// so a single day of hourly profiles can drive a month-long run.
	Period int `json:"period,omitempty" yaml:"period,omitempty"`

	Balances  BalanceTable   `json:"balances" yaml:"balances"`
	Overdraft OverdraftTable `json:"overdraft" yaml:"overdraft"`
}

// Load reads a YAML profile bundle from path.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile bundle: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Default returns the bundle shipped with the binary.
func Default() (*Bundle, error) {
	data, err := defaults.ReadFile("default_profiles.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded profiles: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads path, or the embedded bundle when path is empty.
func LoadOrDefault(path string) (*Bundle, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes a YAML profile bundle and fills the derived fields of every
// step action profile (step, action, calendar position).
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing profile bundle: %w", err)
	}
	b.normalize()
	return &b, nil
}

func (b *Bundle) normalize() {
	for i := range b.Steps {
		sp := &b.Steps[i]
		month, day, hour := models.StepCalendar(sp.Step)
		for action, ap := range sp.Actions {
			ap.Step = sp.Step
			ap.Action = action
			ap.Month, ap.Day, ap.Hour = month, day, hour
			if ap.Sum == 0 && ap.Count > 0 {
				ap.Sum = ap.Mean * float64(ap.Count)
			}
			sp.Actions[action] = ap
		}
	}
}
