package domain

type ServerID string
type CategoryID string
type ChannelID string

// ChannelKind distinguishes the two independent channel collections a
// category holds. Each kind keeps its own display order.
type ChannelKind string

const (
	ChannelKindText  ChannelKind = "text"
	ChannelKindVoice ChannelKind = "voice"
)

func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelKindText, ChannelKindVoice:
		return true
	default:
		return false
	}
}

type Server struct {
	ID   ServerID
	Name string
}

type Category struct {
	ID       CategoryID
	ServerID ServerID
	Name     string
}

type Channel struct {
	ID         ChannelID
	CategoryID CategoryID
	Kind       ChannelKind
	Name       string
	Topic      string
}

// Identity is the principal a capability handle is bound to. The zero value
// is the anonymous identity.
type Identity struct {
	Token     string
	AccountID string
}

func (i Identity) Anonymous() bool {
	return i.Token == ""
}
