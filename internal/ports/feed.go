package ports

import "context"

// DecisionFeed opens the server-push channel carrying decision events.
type DecisionFeed interface {
	Open(ctx context.Context) (FeedConn, error)
}

// FeedConn is one open decision feed. Messages is closed when the stream ends,
// after which Err reports why (nil on a clean end of stream).
type FeedConn interface {
	Messages() <-chan []byte
	Err() error
	Close() error
}
