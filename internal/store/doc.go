// Package store owns the single persisted state document for Medcab Core.
//
// All reads and writes of application state funnel through Store. Every
// mutating operation follows the same cycle under a single-writer lock:
// load the document from disk, mutate it in memory, recompute the derived
// statistics and inventory views, then persist with the previous version
// copied to a rolling backup slot.
//
// The derived views (Document.Statistics and Document.Inventory) are never
// mutated directly; they are rebuilt from scratch by RecomputeStatistics and
// RecomputeInventory on every save, so after any save they are a pure
// function of users, medicines, and schedules at that instant.
//
// A structurally invalid or unreadable document on load falls back to a
// freshly initialised default document, which is persisted immediately.
package store
