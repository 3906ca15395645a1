// Package database manages landing zone connections. It opens the
// backend-specific connection, applies core-table migrations and exposes
// the session handle the repositories and adapters work through.
package database
