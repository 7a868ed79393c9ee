// Package config provides configuration management for tabclean: the
// process configuration (server, logging, telemetry, pipeline defaults) and
// the pipeline plan that describes one cleaning run.
//
// # Configuration Sources
//
// Process configuration is built from the following sources, later ones
// overriding earlier ones:
//
//	1. Default values
//	2. A YAML file (TABCLEAN_CONFIG, tabclean.yaml or configs/tabclean.yaml)
//	3. Environment variables with the TABCLEAN_ prefix
//
// # Environment Variables
//
//	TABCLEAN_SERVER_PORT=8080
//	TABCLEAN_LOGGING_LEVEL=debug
//	TABCLEAN_PIPELINE_POLICY=coerce-to-null
//	TABCLEAN_PIPELINE_OVERRIDES=fill.strategies.age.value=0,clip.k=3
//	TABCLEAN_DASHBOARD_PLAN=plans/titanic.yaml
//
// # Plans
//
// A plan names the source file, its column specs, the ordered stages and the
// outputs:
//
//	plan, err := config.LoadPlan("plans/titanic.yaml")
//	err = plan.ApplyOverrides([]string{"fill.strategies.Age.method=median"})
//
// Plans are validated with struct tags when loaded and again after
// overrides are applied.
package config
