package fusion

import "math"

// DefaultThreshold is the relative tolerance two values must fall within to agree.
const DefaultThreshold = 0.20

// Agree reports whether v1 and v2 lie within threshold of their mean.
// The tolerance is relative to the magnitude of the mean, so it works for
// negative temperatures too. A zero mean agrees only when both values are zero.
func Agree(v1, v2, threshold float64) bool {
	avg := (v1 + v2) / 2
	if avg == 0 {
		return v1 == 0 && v2 == 0
	}
	return math.Abs(v1-v2)/math.Abs(avg) <= threshold
}

// Outcome is a blended value together with how it was reached.
type Outcome struct {
	Value   *float64
	Method  Method
	Sources []string
}

// Agreed reports whether two sources reached consensus.
func (o Outcome) Agreed() bool {
	return o.Method == MethodConsensus
}

// Blend reduces candidates to one value.
func Blend(candidates []Candidate, threshold float64) *float64 {
	return BlendOutcome(candidates, threshold).Value
}

// BlendOutcome scans pairs (i, j), i < j, in list order and returns the mean of
// the first pair that agrees. Without any agreeing pair the first candidate wins.
func BlendOutcome(candidates []Candidate, threshold float64) Outcome {
	switch len(candidates) {
	case 0:
		return Outcome{Method: MethodNone}
	case 1:
		return Outcome{
			Value:   Float(candidates[0].Value),
			Method:  MethodSingle,
			Sources: []string{candidates[0].Source},
		}
	}

	for i := 0; i < len(candidates)-1; i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if Agree(a.Value, b.Value, threshold) {
				return Outcome{
					Value:   Float((a.Value + b.Value) / 2),
					Method:  MethodConsensus,
					Sources: []string{a.Source, b.Source},
				}
			}
		}
	}

	return Outcome{
		Value:   Float(candidates[0].Value),
		Method:  MethodPriority,
		Sources: []string{candidates[0].Source},
	}
}

// FirstAvailable takes the first candidate with no consensus step.
func FirstAvailable(candidates []Candidate) Outcome {
	if len(candidates) == 0 {
		return Outcome{Method: MethodNone}
	}
	return Outcome{
		Value:   Float(candidates[0].Value),
		Method:  MethodFirstAvailable,
		Sources: []string{candidates[0].Source},
	}
}
