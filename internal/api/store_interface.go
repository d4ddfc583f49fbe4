package api

import "github.com/soaringjerry/mindbridge/internal/services"

// Store is everything the HTTP layer persists. The in-memory store and
// db.SQLStore both satisfy it; pick one at startup.
type Store interface {
	services.SessionStore
	services.ResponseStore
	services.ResultStore
	services.AuthStore
	services.ChatStore
}

var _ Store = (*memoryStore)(nil)
