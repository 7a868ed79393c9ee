// Package app wires the dataset dashboard together: configuration,
// logging, OpenTelemetry, the cleaning pipeline and the HTTP server.
//
// Startup opens one dataset session. When dashboard.plan is set the plan
// is run once and its cleaned table is served; otherwise dashboard.source
// is loaded as is. The session never changes while the server runs.
//
// Usage:
//
//	application, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns after SIGINT or SIGTERM once in-flight requests have
// finished and telemetry has been flushed. The package never calls
// os.Exit.
package app
