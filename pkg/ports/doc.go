// Package ports declares the capability interfaces the workflow core
// consumes. The core never owns file I/O, HTTP clients, or subprocesses;
// hosts inject implementations of these interfaces (or rely on the
// adapters under pkg/adapters).
package ports
