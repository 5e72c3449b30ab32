package publisher

// Publisher represents a service for publishing search reports
type Publisher interface {
	// Publish publishes a message under key
	Publish(key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}
