package worker

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/domain"
)

func TestClanSoldiers(t *testing.T) {
	repos := newTestRepos(t)

	save := func(userID domain.UserID, playerID domain.PlayerID, clans ...string) {
		_, err := repos.players.Save(domain.Player{
			ID:           playerID,
			UserID:       userID,
			LinkedGuilds: []domain.GuildID{"guild-1"},
			Clans:        clans,
		})
		require.NoError(t, err)
	}

	save("user-1", "p1", "BSFR")
	save("user-2", "p2", "OTHER", "BSFR")
	save("user-3", "p3")

	clan := &domain.ClanSettings{
		ClanTag:  "BSFR",
		Soldiers: []domain.UserID{"user-1", "user-2", "user-3", "user-unlinked"},
	}

	soldiers := clanSoldiers(clan, repos.players, zerolog.Nop())

	// only players whose primary clan matches count as enlisted
	require.Len(t, soldiers, 1)
	assert.Equal(t, domain.UserID("user-1"), soldiers["p1"].UserID)
}

func TestPostInPartsBatchesUnderLimit(t *testing.T) {
	gateway := newFakeGateway()

	line := strings.Repeat("x", 600) + "\n"
	lines := make([]string, 7)
	for i := range lines {
		lines[i] = line
	}

	err := postInParts(context.Background(), gateway, "channel", lines)
	require.NoError(t, err)

	require.Len(t, gateway.messages, 3)
	total := 0
	for _, msg := range gateway.messages {
		assert.LessOrEqual(t, len(msg.message.Content), constants.MaxDiscordMessageLength)
		require.NotNil(t, msg.message.AllowedMentions)
		assert.Empty(t, msg.message.AllowedMentions.Parse)
		total += len(msg.message.Content)
	}
	assert.Equal(t, 7*len(line), total)
}

func TestPostInPartsEmpty(t *testing.T) {
	gateway := newFakeGateway()

	require.NoError(t, postInParts(context.Background(), gateway, "channel", nil))
	assert.Empty(t, gateway.messages)
}
