// Package config loads and validates magicbox configuration.
//
// Configuration is layered. Later layers win:
//
//  1. Defaults (defaults.go)
//  2. The YAML file
//  3. MAGICBOX_SECTION_FIELD environment variables
//
// The result is validated once all layers are applied. Validation collects
// every problem into a ValidationError:
//
//	configuration validation failed with 2 errors:
//	  - limiter.linearization: invalid linearization "flat": must be 'legacy' or 'grouped'
//	  - server.base_path: base path "api" must start with '/'
//
// # Example Configuration
//
//	params:
//	  filters: "filters"
//	  include: "include"
//	relations:
//	  delimiter: "."
//	limiter:
//	  linearization: "grouped"
//	schema:
//	  path: "./schema.yaml"
//	  watch: true
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/magicbox.db"
//	    analyze_schedule: "0 3 * * *"
//	server:
//	  listen_address: "0.0.0.0:8080"
//	  base_path: "/api"
//	telemetry:
//	  logging:
//	    level: "debug"
//	    format: "text"
//
// Commands receive an explicit *Config. Initialize and GetConfig keep a
// process-wide copy for the few places that cannot be handed one.
package config
