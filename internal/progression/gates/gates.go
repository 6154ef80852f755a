// Package gates evaluates composable completion requirements against a
// unit's raw signals. Evaluation is pure; persistence and retries live in
// the data layer.
package gates

import (
	"encoding/json"
	"fmt"
	"time"
)

// Gate names form the strategy map keys. New gate kinds register a checker
// here without touching the evaluation loop or the schema.
const (
	GateRequireVideo      = "require_video"
	GateRequireAssessment = "require_assessment"
	GateRequireSteps      = "require_steps"
)

// Default thresholds applied when a spec omits one.
const (
	DefaultVideoThresholdPct = 90.0
	DefaultAssessmentScore   = 70.0
)

// Spec is one named requirement from a unit's gate configuration.
type Spec struct {
	Name      string  `json:"name"`
	Required  bool    `json:"required"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Signals are the raw per-user facts gates are tested against.
type Signals struct {
	VideoWatchPct  float64
	AttemptCount   int
	BestScore      float64
	StepsCompleted int
	TotalSteps     int
}

// State is the derived per-gate record. FirstSatisfiedAt is set on the
// first unsatisfied-to-satisfied transition and never cleared.
type State struct {
	Satisfied        bool       `json:"satisfied"`
	FirstSatisfiedAt *time.Time `json:"first_satisfied_at,omitempty"`
}

// Result is one evaluation pass over a unit.
type Result struct {
	States      map[string]State
	AllMet      bool
	ProgressPct float64
}

type checker func(spec Spec, sig Signals) bool

var checkers = map[string]checker{
	GateRequireVideo: func(spec Spec, sig Signals) bool {
		t := spec.Threshold
		if t <= 0 {
			t = DefaultVideoThresholdPct
		}
		return sig.VideoWatchPct >= t
	},
	GateRequireAssessment: func(spec Spec, sig Signals) bool {
		t := spec.Threshold
		if t <= 0 {
			t = DefaultAssessmentScore
		}
		return sig.AttemptCount > 0 && sig.BestScore >= t
	},
	GateRequireSteps: func(spec Spec, sig Signals) bool {
		t := int(spec.Threshold)
		if t <= 0 {
			t = sig.TotalSteps
		}
		if t <= 0 {
			return false
		}
		return sig.StepsCompleted >= t
	},
}

// Known reports whether a gate name has a registered checker.
func Known(name string) bool {
	_, ok := checkers[name]
	return ok
}

// ParseConfig decodes a unit's stored gate configuration. Unknown gate
// names are rejected here so the evaluator itself stays total.
func ParseConfig(raw []byte) ([]Spec, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var specs []Spec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("decode gate config: %w", err)
	}
	for _, s := range specs {
		if !Known(s.Name) {
			return nil, fmt.Errorf("unknown gate %q", s.Name)
		}
	}
	return specs, nil
}

// Evaluate tests every configured gate against the signals, merging with
// prior state so satisfaction is monotonic. AllMet is the AND over required
// gates, vacuously true when none are required.
//
// The percentage follows the gate configuration when required gates exist,
// falls back to step counting when the unit tracks steps, and is otherwise
// zero until the unit is explicitly completed.
func Evaluate(specs []Spec, sig Signals, prior map[string]State, now time.Time) Result {
	states := make(map[string]State, len(specs))

	requiredTotal := 0
	requiredMet := 0
	allMet := true

	for _, spec := range specs {
		prev := prior[spec.Name]
		st := State{Satisfied: prev.Satisfied, FirstSatisfiedAt: prev.FirstSatisfiedAt}

		if !st.Satisfied {
			if check, ok := checkers[spec.Name]; ok && check(spec, sig) {
				at := now
				st.Satisfied = true
				st.FirstSatisfiedAt = &at
			}
		}
		states[spec.Name] = st

		if spec.Required {
			requiredTotal++
			if st.Satisfied {
				requiredMet++
			} else {
				allMet = false
			}
		}
	}

	return Result{
		States:      states,
		AllMet:      allMet,
		ProgressPct: progressPct(requiredMet, requiredTotal, sig),
	}
}

// ForcePass marks every configured gate satisfied, preserving timestamps
// already earned. Used for coach overrides.
func ForcePass(specs []Spec, prior map[string]State, now time.Time) Result {
	states := make(map[string]State, len(specs))
	for _, spec := range specs {
		prev := prior[spec.Name]
		st := State{Satisfied: true, FirstSatisfiedAt: prev.FirstSatisfiedAt}
		if st.FirstSatisfiedAt == nil {
			at := now
			st.FirstSatisfiedAt = &at
		}
		states[spec.Name] = st
	}
	return Result{States: states, AllMet: true, ProgressPct: 100}
}

func progressPct(met, total int, sig Signals) float64 {
	if total > 0 {
		return float64(met) / float64(total) * 100
	}
	if sig.TotalSteps > 0 {
		pct := float64(sig.StepsCompleted) / float64(sig.TotalSteps) * 100
		if pct > 100 {
			pct = 100
		}
		return pct
	}
	return 0
}
