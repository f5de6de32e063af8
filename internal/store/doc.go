// Package store provides SQLite-backed persistence for MenuLink.
//
// The store holds restaurants and their settings, menus, the CRM customer
// list, reservations, staff shifts, and the scheduled_emails table that
// drives notification dispatch.
//
// # Scheduled emails
//
//   - UNIQUE(reservation_id, kind): scheduling is idempotent; inserting the
//     same notification twice is silently ignored (ON CONFLICT DO NOTHING)
//   - Due rows are read in (scheduled_for, id) order so a sweep is
//     deterministic for a given clock
//   - Status updates are guarded by status = 'pending' so a terminal row is
//     never reopened
//
// # Time
//
// Timestamps are INTEGER unix seconds in UTC. Sub-second precision is
// dropped on write.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
