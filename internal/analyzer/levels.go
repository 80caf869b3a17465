package analyzer

// Levels is the energy of one block split into three bands, each in [0, 1].
type Levels struct {
	Low     float64 `json:"low"`
	Mid     float64 `json:"mid"`
	High    float64 `json:"high"`
	Overall float64 `json:"overall"`
	Beat    float64 `json:"beat"`
}

// Gate applies a noise floor so weak signals read as silence.
func Gate(l Levels, floor float64) Levels {
	if floor <= 0 {
		return l
	}
	if floor >= 1 {
		return Levels{}
	}
	gate := func(v float64) float64 {
		if v <= floor {
			return 0
		}
		return clamp((v-floor)/(1.0-floor), 0, 1)
	}
	l.Low = gate(l.Low)
	l.Mid = gate(l.Mid)
	l.High = gate(l.High)
	l.Overall = gate(l.Overall)
	l.Beat = gate(l.Beat)
	return l
}
