package cache

import "context"

// LivedrawCache is the pub/sub broker that carries accepted drawings between
// app instances. Every instance's hub subscribes to the same channel, so a
// stroke published by one instance reaches the clients of all of them.
type LivedrawCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error
}
