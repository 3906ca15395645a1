// Package validation guards the landing zone write path: JSON Schema
// checks on raw payloads, quality checks on extracted rows, and
// structural checks on landing tables.
package validation
