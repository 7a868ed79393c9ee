// Package pipeline turns a cleaning plan into an ordered list of stages and
// runs a table through them.
//
// Stage kinds are resolved through a Registry of factories. Each factory
// decodes the stage's params block into a typed struct, rejecting unknown
// keys and checking validate tags, so a misspelt parameter fails at build
// time rather than halfway through a run.
//
// A run is strictly sequential. Each stage receives the table produced by
// the previous one and returns a new table plus a ChangeReport; the reports
// accumulate into a Summary. When a stage fails the run halts and returns
// the last good table together with the partial summary and an error that
// names the stage.
package pipeline
