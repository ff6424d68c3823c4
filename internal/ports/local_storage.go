package ports

import "context"

// Keys of the client's durable local storage. Only KeySession is consumed by
// the core; the other two belong to the display layer.
const (
	KeySession               = "app_session"
	KeySettings              = "appSettings"
	KeyNotificationOverrides = "notificationOverrides"
)

// LocalStorage is a small durable key-value store on the client machine.
// Get returns domain.ErrKeyNotFound for absent keys.
type LocalStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
