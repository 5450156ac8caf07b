// Package middleware wraps state stores with cross-cutting behavior such
// as masking sensitive values before they reach persistence.
package middleware

import "github.com/aretw0/plait/pkg/ports"

// Middleware wraps a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares so the first one listed sees Save calls first.
func Chain(store ports.StateStore, middlewares ...Middleware) ports.StateStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
