package dispatch

// Outcome is what happened to one row during delivery.
type Outcome int

const (
	// OutcomeSkipped means the row was not touched: it was no longer
	// pending, not yet due, or another sweep got to it first.
	OutcomeSkipped Outcome = iota
	OutcomeSent
	OutcomeRetrying
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeRetrying:
		return "retrying"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "skipped"
	}
}

// SweepResult summarises one Sweep.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Retrying  int `json:"retrying"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
}

func (r *SweepResult) add(o Outcome) {
	switch o {
	case OutcomeSent:
		r.Sent++
	case OutcomeRetrying:
		r.Retrying++
	case OutcomeFailed:
		r.Failed++
	case OutcomeCancelled:
		r.Cancelled++
	default:
		r.Skipped++
	}
}
