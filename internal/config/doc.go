// Package config handles configuration loading for mandi-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// Required values are validated at load time; a missing required value aborts
// startup rather than degrading at runtime.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${MANDI_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${MANDI_JWT_SECRET}"  # Required, >= 32 bytes
//	  verify_audience: false             # Audience checking off by default
//	  audience: "authenticated"          # Required when verify_audience is true
//
// Database:
//
//	database:
//	  path: "/var/lib/mandi/gateway.db"
//
// Blob storage for product images:
//
//	storage:
//	  dir: "data/uploads"
//	  public_base_url: "/uploads"
//
// Crop advisor model:
//
//	advisor:
//	  model_dir: "model"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - HTTP listen address presence
//   - JWT secret presence and minimum length (32 bytes)
//   - Audience presence when audience verification is enabled
//   - Database path presence
package config
