// Package api provides an HTTP API server for inspecting experiment runs and
// querying document embeddings.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8089")
	ListenAddr string
}
