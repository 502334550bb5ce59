package discord

import (
	"context"
	"errors"

	"beatleader-bot/internal/domain"
)

// ErrUnknownMember is reported when the chat platform no longer knows the
// member in that guild. Callers use it to drop stale guild links.
var ErrUnknownMember = errors.New("unknown guild member")

type AllowedMentions struct {
	Parse []string        `json:"parse"`
	Users []domain.UserID `json:"users,omitempty"`
}

type File struct {
	Name        string
	ContentType string
	Body        []byte
}

type Message struct {
	Content         string
	AllowedMentions *AllowedMentions
	Files           []File
}

// Gateway is the narrow chat surface the workers need. Implemented by the
// REST client; tests substitute their own fake.
type Gateway interface {
	GetMemberRoles(ctx context.Context, guildID domain.GuildID, userID domain.UserID) ([]domain.RoleID, error)
	AddMemberRole(ctx context.Context, guildID domain.GuildID, userID domain.UserID, roleID domain.RoleID) error
	RemoveMemberRole(ctx context.Context, guildID domain.GuildID, userID domain.UserID, roleID domain.RoleID) error
	SendMessage(ctx context.Context, channelID domain.ChannelID, message Message) (string, error)
	CreateThread(ctx context.Context, channelID domain.ChannelID, name string) (domain.ChannelID, error)
	PinMessage(ctx context.Context, channelID domain.ChannelID, messageID string) error
}
