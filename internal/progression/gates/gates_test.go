package gates

import (
	"testing"
	"time"
)

var evalAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func twoGateConfig() []Spec {
	return []Spec{
		{Name: GateRequireVideo, Required: true, Threshold: 90},
		{Name: GateRequireAssessment, Required: true, Threshold: 70},
	}
}

func TestEvaluateVideoAloneIsNotEnough(t *testing.T) {
	specs := twoGateConfig()

	r := Evaluate(specs, Signals{VideoWatchPct: 100}, nil, evalAt)
	if r.AllMet {
		t.Fatalf("video alone should not satisfy both gates")
	}
	if !r.States[GateRequireVideo].Satisfied {
		t.Fatalf("video gate should be satisfied")
	}
	if r.States[GateRequireAssessment].Satisfied {
		t.Fatalf("assessment gate should not be satisfied")
	}
	if r.ProgressPct != 50 {
		t.Fatalf("want 50%%, got %v", r.ProgressPct)
	}

	// Passing assessment afterward flips AllMet and the percentage.
	r2 := Evaluate(specs, Signals{VideoWatchPct: 100, AttemptCount: 1, BestScore: 85}, r.States, evalAt.Add(time.Hour))
	if !r2.AllMet {
		t.Fatalf("both gates satisfied, AllMet should be true")
	}
	if r2.ProgressPct != 100 {
		t.Fatalf("want 100%%, got %v", r2.ProgressPct)
	}
}

func TestEvaluateMonotonicSatisfaction(t *testing.T) {
	specs := []Spec{{Name: GateRequireVideo, Required: true, Threshold: 90}}

	r1 := Evaluate(specs, Signals{VideoWatchPct: 95}, nil, evalAt)
	if !r1.States[GateRequireVideo].Satisfied {
		t.Fatalf("gate should be satisfied")
	}
	first := r1.States[GateRequireVideo].FirstSatisfiedAt
	if first == nil || !first.Equal(evalAt) {
		t.Fatalf("first satisfied timestamp should be eval time, got %v", first)
	}

	// A worse later signal cannot unsatisfy the gate or move the timestamp.
	r2 := Evaluate(specs, Signals{VideoWatchPct: 10}, r1.States, evalAt.Add(time.Hour))
	st := r2.States[GateRequireVideo]
	if !st.Satisfied {
		t.Fatalf("satisfaction must be monotonic")
	}
	if !st.FirstSatisfiedAt.Equal(evalAt) {
		t.Fatalf("first satisfied timestamp must not move, got %v", st.FirstSatisfiedAt)
	}
	if !r2.AllMet {
		t.Fatalf("AllMet must stay true")
	}
}

func TestEvaluateVacuousTruth(t *testing.T) {
	r := Evaluate(nil, Signals{}, nil, evalAt)
	if !r.AllMet {
		t.Fatalf("no required gates means vacuously met")
	}
	if r.ProgressPct != 0 {
		t.Fatalf("no gates and no steps reports 0%%, got %v", r.ProgressPct)
	}

	// Optional-only configs are vacuously met too.
	r = Evaluate([]Spec{{Name: GateRequireVideo, Required: false, Threshold: 90}}, Signals{}, nil, evalAt)
	if !r.AllMet {
		t.Fatalf("optional gates do not block AllMet")
	}
}

func TestEvaluateStepFallback(t *testing.T) {
	r := Evaluate(nil, Signals{StepsCompleted: 3, TotalSteps: 4}, nil, evalAt)
	if r.ProgressPct != 75 {
		t.Fatalf("want 75%%, got %v", r.ProgressPct)
	}
	r = Evaluate(nil, Signals{StepsCompleted: 9, TotalSteps: 4}, nil, evalAt)
	if r.ProgressPct != 100 {
		t.Fatalf("step percentage clamps at 100, got %v", r.ProgressPct)
	}
}

func TestEvaluateStepGate(t *testing.T) {
	specs := []Spec{{Name: GateRequireSteps, Required: true}}
	sig := Signals{StepsCompleted: 3, TotalSteps: 5}
	if r := Evaluate(specs, sig, nil, evalAt); r.AllMet {
		t.Fatalf("3 of 5 steps should not satisfy the step gate")
	}
	sig.StepsCompleted = 5
	if r := Evaluate(specs, sig, nil, evalAt); !r.AllMet {
		t.Fatalf("all steps done should satisfy the step gate")
	}
}

func TestEvaluateAssessmentNeedsAttempt(t *testing.T) {
	specs := []Spec{{Name: GateRequireAssessment, Required: true, Threshold: 70}}
	// A best score with no attempts on record is not a pass.
	if r := Evaluate(specs, Signals{BestScore: 90}, nil, evalAt); r.AllMet {
		t.Fatalf("score without attempt should not satisfy")
	}
	if r := Evaluate(specs, Signals{AttemptCount: 2, BestScore: 69}, nil, evalAt); r.AllMet {
		t.Fatalf("below-threshold score should not satisfy")
	}
}

func TestDefaultThresholds(t *testing.T) {
	specs := []Spec{{Name: GateRequireVideo, Required: true}}
	if r := Evaluate(specs, Signals{VideoWatchPct: 89}, nil, evalAt); r.AllMet {
		t.Fatalf("below default video threshold should not satisfy")
	}
	if r := Evaluate(specs, Signals{VideoWatchPct: 90}, nil, evalAt); !r.AllMet {
		t.Fatalf("default video threshold is 90")
	}
}

func TestForcePass(t *testing.T) {
	specs := twoGateConfig()
	earned := Evaluate(specs, Signals{VideoWatchPct: 100}, nil, evalAt)

	r := ForcePass(specs, earned.States, evalAt.Add(time.Hour))
	if !r.AllMet || r.ProgressPct != 100 {
		t.Fatalf("force pass should satisfy everything, got %+v", r)
	}
	// The video gate keeps its earned timestamp; the assessment gate gets
	// the override time.
	if !r.States[GateRequireVideo].FirstSatisfiedAt.Equal(evalAt) {
		t.Fatalf("earned timestamp must be preserved")
	}
	if !r.States[GateRequireAssessment].FirstSatisfiedAt.Equal(evalAt.Add(time.Hour)) {
		t.Fatalf("override timestamp expected on unearned gate")
	}
}

func TestParseConfig(t *testing.T) {
	specs, err := ParseConfig([]byte(`[{"name":"require_video","required":true,"threshold":80}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != GateRequireVideo || specs[0].Threshold != 80 {
		t.Fatalf("got %+v", specs)
	}

	if _, err := ParseConfig([]byte(`[{"name":"require_handstand"}]`)); err == nil {
		t.Fatalf("unknown gate name must be rejected")
	}
	if specs, err := ParseConfig(nil); err != nil || specs != nil {
		t.Fatalf("empty config: %v %v", specs, err)
	}
	if _, err := ParseConfig([]byte(`{notjson`)); err == nil {
		t.Fatalf("malformed config must be rejected")
	}
}
