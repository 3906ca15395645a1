// Package schema defines the shared value types for the landing zone:
// payload envelopes, database backends, run statuses and table specs.
package schema
