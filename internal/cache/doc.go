// Package cache defines the disk-backed versioned store responsible for
// translating request identities into StoragePath/<version>/<host>/<path>
// files. Exactly one generation is live at a time; install creates it and
// activation drops every other one. The store exposes read/write primitives
// with safe semantics (temp file + rename, meta written after body) and keeps
// status/headers alongside each body so strategies can replay full responses.
// Strategy handlers depend on this package to stream cached responses or
// record upstream fetches without duplicating filesystem logic.
package cache
