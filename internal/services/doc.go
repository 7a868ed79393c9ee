// Package services sits between the transports (CLI and HTTP) and the
// pipeline packages.
//
// PipelineService runs cleaning plans end to end: it loads the source,
// builds and runs the stages, and exports the cleaned table and report.
// DatasetService answers read-only queries over a Session, the explicit
// handle on one loaded table that every query receives. HealthService
// reports liveness, readiness and runtime statistics.
//
// Services take a *slog.Logger through their constructors and read the
// trace and run ids from the request context.
package services
