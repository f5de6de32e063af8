// Package domain defines the MenuLink entities and the rules that do not
// depend on storage: the reservation status machine, scheduled email kinds
// and statuses, field presence checks, and identifier generation.
//
// # Reservation lifecycle
//
//	pending ──► confirmed ──► completed
//	   │            │
//	   └──► cancelled ◄┘
//
// cancelled and completed are terminal. Moving a reservation to the status
// it already has is a no-op.
//
// # Time
//
// All timestamps are UTC. Presentation in a restaurant's local time happens
// only when rendering emails.
package domain
