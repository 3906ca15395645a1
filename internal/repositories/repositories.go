// Package repositories owns all SQL against the landing zone. Each
// repository declares its table specs and exposes typed bulk inserts;
// nothing outside this package builds INSERT statements.
package repositories
