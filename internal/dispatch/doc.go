// Package dispatch delivers scheduled emails.
//
// A Dispatcher reads pending rows whose scheduled_for has passed, renders
// each from the current reservation and restaurant state, and hands it to
// a mail.Provider. Delivery is at-least-once: a row is marked sent only
// after the provider accepted it, so a crash between the two re-sends the
// row on the next sweep. Providers receive a stable idempotency key per
// (reservation, kind) to deduplicate such re-sends.
//
// Failure handling:
//   - transient provider errors: attempts+1, the row stays pending until
//     attempts reaches the configured maximum, then it is failed
//   - permanent provider errors, render errors and missing reservations:
//     the row is failed immediately
//   - reminder and review rows of a cancelled reservation are cancelled
//     without sending
//
// Runner drives Sweep on a fixed interval for the serve command; the cron
// endpoint and the dispatch command call Sweep directly.
package dispatch
