package dispatch

import "fmt"

// DeliveryError reports a store failure while delivering one row. The
// provider outcome (if any) has not been recorded; the row stays pending
// and is picked up again by a later sweep.
type DeliveryError struct {
	EmailID string
	Stage   string // "load", "mark-sent", "record-failure", ...
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver email %s: %s: %v", e.EmailID, e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
