package profiles

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/nvandessel/txsim/internal/constants"
	"github.com/nvandessel/txsim/internal/models"
)

// ErrInvalidBundle is returned by Check when a bundle fails validation.
var ErrInvalidBundle = errors.New("invalid profile bundle")

// ValidationError describes one problem found in a bundle.
type ValidationError struct {
	Where string `json:"where"` // e.g. `client "retail"`, "step 12", "balances[3]"
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// String returns a human-readable description of the validation error.
func (e ValidationError) String() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Where, e.Issue)
	}
	return fmt.Sprintf("%s: %s %s", e.Where, e.Field, e.Issue)
}

// Validate returns every problem that would make a run on b ill-defined:
// unknown actions, non-positive means, probability sets that do not sum to 1,
// duplicate names or steps and malformed tables.
func Validate(b *Bundle) []ValidationError {
	var issues []ValidationError
	add := func(where, field, format string, args ...any) {
		issues = append(issues, ValidationError{Where: where, Field: field, Issue: fmt.Sprintf(format, args...)})
	}

	if len(b.Clients) == 0 {
		add("clients", "", "no client profile defined")
	}
	names := make(map[string]bool)
	for i, c := range b.Clients {
		where := fmt.Sprintf("clients[%d]", i)
		if c.Name == "" {
			add(where, "name", "is empty")
		} else {
			where = fmt.Sprintf("client %q", c.Name)
			if names[c.Name] {
				add(where, "name", "is duplicated")
			}
			names[c.Name] = true
		}
		if c.TargetCount < 0 {
			add(where, "target_count", "is negative: %d", c.TargetCount)
		}
		if c.Frequency < 0 {
			add(where, "frequency", "is negative: %v", c.Frequency)
		}
		if len(c.Actions) == 0 {
			add(where, "actions", "is empty")
			continue
		}
		total := 0.0
		for _, action := range sortedKeys(c.Actions) {
			s := c.Actions[action]
			if !action.Valid() {
				add(where, string(action), "is not a known action")
				continue
			}
			if s.Probability < 0 || s.Probability > 1 {
				add(where, string(action), "probability out of [0,1]: %v", s.Probability)
			}
			if s.Mean <= 0 {
				add(where, string(action), "mean must be positive, got %v", s.Mean)
			}
			if s.Std < 0 {
				add(where, string(action), "std is negative: %v", s.Std)
			}
			total += s.Probability
		}
		if math.Abs(total-1) > constants.ProbabilityTolerance {
			add(where, "actions", "probabilities sum to %v, want 1", total)
		}
	}

	seen := make(map[int]bool)
	for _, sp := range b.Steps {
		where := fmt.Sprintf("step %d", sp.Step)
		if sp.Step < 0 {
			add(where, "step", "is negative")
		}
		if seen[sp.Step] {
			add(where, "step", "is duplicated")
		}
		seen[sp.Step] = true

		explicit := 0.0
		hasExplicit := false
		for _, action := range sortedKeys(sp.Actions) {
			ap := sp.Actions[action]
			if !action.Valid() {
				add(where, string(action), "is not a known action")
				continue
			}
			if ap.Count < 0 {
				add(where, string(action), "count is negative: %d", ap.Count)
			}
			if ap.Defined() && ap.Mean <= 0 {
				add(where, string(action), "mean must be positive, got %v", ap.Mean)
			}
			if ap.Std < 0 {
				add(where, string(action), "std is negative: %v", ap.Std)
			}
			if ap.Probability != 0 {
				hasExplicit = true
				explicit += ap.Probability
			}
		}
		if hasExplicit && math.Abs(explicit-1) > constants.ProbabilityTolerance {
			add(where, "actions", "probabilities sum to %v, want 1", explicit)
		}
	}
	if b.Period < 0 {
		add("period", "", "is negative: %d", b.Period)
	}

	for i, bb := range b.Balances {
		where := fmt.Sprintf("balances[%d]", i)
		if bb.High < bb.Low {
			add(where, "high", "is below low (%v < %v)", bb.High, bb.Low)
		}
		if bb.Freq < 0 {
			add(where, "freq", "is negative: %v", bb.Freq)
		}
	}
	for i, ob := range b.Overdraft {
		where := fmt.Sprintf("overdraft[%d]", i)
		if ob.High < ob.Low {
			add(where, "high", "is below low (%v < %v)", ob.High, ob.Low)
		}
		if ob.Limit < 0 {
			add(where, "limit", "is negative: %v", ob.Limit)
		}
	}
	return issues
}

// Check validates b and folds the issues into a single error wrapping
// ErrInvalidBundle.
func Check(b *Bundle) error {
	issues := Validate(b)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(msgs, "; "))
}

// sortedKeys returns the actions of m in canonical order, unknown actions last
// in lexical order, so reports are stable.
func sortedKeys[V any](m map[models.ActionType]V) []models.ActionType {
	keys := make([]models.ActionType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b models.ActionType) int {
		ia, ib := models.ActionIndex(a), models.ActionIndex(b)
		if ia < 0 {
			ia = len(models.Actions)
		}
		if ib < 0 {
			ib = len(models.Actions)
		}
		if ia != ib {
			return ia - ib
		}
		return strings.Compare(string(a), string(b))
	})
	return keys
}
