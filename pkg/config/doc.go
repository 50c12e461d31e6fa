// Package config provides application configuration management from
// environment variables.
//
// All settings have defaults except the database URL:
//
//	AURACLUB_HOST="0.0.0.0"
//	AURACLUB_PORT="8080"
//	AURACLUB_HEALTH_PORT="9090"
//	AURACLUB_POSTGRES_URL="postgres://localhost/auraclub?sslmode=disable"
//	AURACLUB_POSTGRES_MAX_CONNS="25"
//	AURACLUB_REDIS_URL=""                # empty disables the access cache
//	AURACLUB_ACCESS_CACHE_TTL="5m"
//	AURACLUB_SWEEP_ENABLED="true"
//	AURACLUB_SWEEP_SCHEDULE="0 2 * * *"
//	AURACLUB_LOG_LEVEL="info"
package config
