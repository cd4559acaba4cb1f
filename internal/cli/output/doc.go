// Package output renders command results as a table, JSON or YAML.
//
// Types implementing Tabular choose their own columns; anything else is
// laid out by reflection. Spinner shows activity on an interactive
// terminal while a request is in flight.
package output
