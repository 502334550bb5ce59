package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/config"
	"beatleader-bot/internal/discord"
	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/metrics"
	"beatleader-bot/internal/repository"
	"beatleader-bot/internal/storage"
)

type sentMessage struct {
	channelID domain.ChannelID
	message   discord.Message
}

type roleChange struct {
	guildID domain.GuildID
	userID  domain.UserID
	roleID  domain.RoleID
}

// fakeGateway records every call so tests can assert on the traffic.
type fakeGateway struct {
	mu sync.Mutex

	memberRoles    map[string][]domain.RoleID
	unknownMembers map[string]bool

	added    []roleChange
	removed  []roleChange
	messages []sentMessage
	threads  []string
	pinned   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		memberRoles:    map[string][]domain.RoleID{},
		unknownMembers: map[string]bool{},
	}
}

func memberKey(guildID domain.GuildID, userID domain.UserID) string {
	return string(guildID) + ":" + string(userID)
}

func (g *fakeGateway) GetMemberRoles(_ context.Context, guildID domain.GuildID, userID domain.UserID) ([]domain.RoleID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := memberKey(guildID, userID)
	if g.unknownMembers[key] {
		return nil, discord.ErrUnknownMember
	}
	return g.memberRoles[key], nil
}

func (g *fakeGateway) AddMemberRole(_ context.Context, guildID domain.GuildID, userID domain.UserID, roleID domain.RoleID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.added = append(g.added, roleChange{guildID, userID, roleID})
	return nil
}

func (g *fakeGateway) RemoveMemberRole(_ context.Context, guildID domain.GuildID, userID domain.UserID, roleID domain.RoleID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removed = append(g.removed, roleChange{guildID, userID, roleID})
	return nil
}

func (g *fakeGateway) SendMessage(_ context.Context, channelID domain.ChannelID, message discord.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.messages = append(g.messages, sentMessage{channelID, message})
	return "msg-1", nil
}

func (g *fakeGateway) CreateThread(_ context.Context, channelID domain.ChannelID, name string) (domain.ChannelID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.threads = append(g.threads, name)
	return channelID + "-thread", nil
}

func (g *fakeGateway) PinMessage(_ context.Context, _ domain.ChannelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pinned = append(g.pinned, messageID)
	return nil
}

type testRepos struct {
	persist  *storage.PersistInstance
	blClient *api.Client
	players  *repository.PlayerRepository
	guilds   *repository.GuildSettingsRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()

	persist, err := storage.NewPersistInstance(t.TempDir())
	require.NoError(t, err)

	blClient := api.NewClient(&config.Config{}, metrics.New(), zerolog.Nop())

	players, err := repository.NewPlayerRepository(persist, blClient, zerolog.Nop())
	require.NoError(t, err)

	guilds, err := repository.NewGuildSettingsRepository(persist, zerolog.Nop())
	require.NoError(t, err)

	return &testRepos{
		persist:  persist,
		blClient: blClient,
		players:  players,
		guilds:   guilds,
	}
}
