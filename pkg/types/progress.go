package types

// ProgressState is the quantified progress of one running stage.
// Current never decreases. Total starts as an estimate and may be revised
// once, after the process exits, to the measured final value.
type ProgressState struct {
	Current     int64
	Total       int64
	Unit        string
	Description string

	revised bool
}

// NewProgressState starts a stage's progress with an a-priori estimate.
func NewProgressState(total int64, unit, description string) *ProgressState {
	return &ProgressState{Total: total, Unit: unit, Description: description}
}

// Advance moves Current forward. Lower values are ignored.
func (p *ProgressState) Advance(units int64) bool {
	if units <= p.Current {
		return false
	}
	p.Current = units
	return true
}

// Revise replaces the estimate with the true total. Only the first call
// has an effect.
func (p *ProgressState) Revise(total int64) bool {
	if p.revised {
		return false
	}
	p.revised = true
	p.Total = total
	p.Advance(total)
	return true
}

// Revised reports whether the total has been corrected.
func (p *ProgressState) Revised() bool {
	return p.revised
}

// Percent is for presentation only.
func (p *ProgressState) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Current) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
