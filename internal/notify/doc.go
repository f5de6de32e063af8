// Package notify decides which emails a reservation state change produces
// and when timer-driven emails fire.
//
// The rules are pure: Plan takes the transition, the reservation, the
// restaurant settings and the current time and returns a Plan describing
// rows to schedule and pending rows to cancel. Persistence and delivery
// live in the store and dispatch packages.
//
// Rules:
//
//	created (pending)      received -> guest now, new_reservation -> owner now
//	created (auto-confirm) confirmed -> guest now, new_reservation -> owner now, reminder
//	pending -> confirmed   confirmed -> guest now, reminder at starts_at - lead
//	* -> cancelled         cancelled -> guest now, cancellation -> owner now,
//	                       every pending row of the reservation cancelled
//	confirmed -> completed review request at end + delay, pending reminder cancelled
package notify
