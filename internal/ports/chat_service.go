package ports

import (
	"context"

	"github.com/bnema/parley-cli/internal/domain"
)

type RegisterPayload struct {
	Username string
	Email    string
	Password string
}

// RegisterResult is the structured outcome of a registration attempt.
// A transport failure is an error; a rejected registration is a result with
// Success false and a machine-readable code.
type RegisterResult struct {
	Success   bool
	ErrorCode string
}

// ChatService is the capability handle through which all remote operations
// are invoked. A handle is bound to one identity; identity changes require a
// fresh handle from the dialer. The operation surface is fixed here, so a
// handle that constructs at all is functionally complete.
type ChatService interface {
	HealthCheck(ctx context.Context) (bool, error)
	Register(ctx context.Context, payload RegisterPayload) (RegisterResult, error)

	ListServers(ctx context.Context) ([]domain.Server, error)
	CreateServer(ctx context.Context, name string) (domain.Server, error)
	ListCategories(ctx context.Context, serverID domain.ServerID) ([]domain.Category, error)
	ListChannels(ctx context.Context, serverID domain.ServerID) ([]domain.Channel, error)
	SendMessage(ctx context.Context, channelID domain.ChannelID, body string) error

	GetServerOrdering(ctx context.Context) ([]domain.ServerID, error)
	SetServerOrdering(ctx context.Context, order []domain.ServerID) error
	GetChannelOrdering(ctx context.Context, serverID domain.ServerID) (domain.ChannelOrdering, error)
	UpdateChannelOrdering(ctx context.Context, serverID domain.ServerID, ordering domain.ChannelOrdering) error
}

// ChatDialer constructs a capability handle bound to the given identity.
// Construction validates the handle's configuration and fails fast; it does
// not perform any network call.
type ChatDialer interface {
	Dial(ctx context.Context, identity domain.Identity) (ChatService, error)
}
