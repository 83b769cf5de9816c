// Package database provides connection configuration and YAML loading,
// connection management with health checks and reconnects, the global
// database handle, SQL error classification, logging and query hooks, all
// built on top of Bun.
package database
