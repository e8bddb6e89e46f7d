package ops

import (
	"math/rand/v2"

	audit "docverify/pkg/platform/audit"
)

// Sampler keeps a fraction of ops events per action. Rates are fixed at
// construction and clamped to [0, 1].
type Sampler struct {
	defaultRate float64
	rates       map[audit.AuditEvent]float64
}

// NewSampler keeps events at defaultRate unless overrides names the action.
func NewSampler(defaultRate float64, overrides map[audit.AuditEvent]float64) *Sampler {
	rates := make(map[audit.AuditEvent]float64, len(overrides))
	for action, rate := range overrides {
		rates[action] = clampRate(rate)
	}
	return &Sampler{defaultRate: clampRate(defaultRate), rates: rates}
}

func (s *Sampler) Keep(action audit.AuditEvent) bool {
	rate, ok := s.rates[action]
	if !ok {
		rate = s.defaultRate
	}
	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return rand.Float64() < rate //nolint:gosec // sampling doesn't need crypto rand
}

func clampRate(r float64) float64 {
	return max(0, min(1, r))
}
