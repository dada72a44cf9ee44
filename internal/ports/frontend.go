package ports

// Frontend defines a long running surface over the triage service
type Frontend interface {
	// Start starts the frontend without blocking
	Start() error

	// Stop stops the frontend and waits for in-flight work
	Stop() error
}
