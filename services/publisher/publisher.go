package publisher

import "context"

// Publisher delivers resolved quotes to downstream consumers
type Publisher interface {
	// Publish appends message under field key to one of the quote streams
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
