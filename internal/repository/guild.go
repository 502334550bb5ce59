package repository

import (
	"time"

	"github.com/rs/zerolog"

	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

type GuildSettingsRepository struct {
	storage *storage.CachedStorage[domain.GuildID, domain.GuildSettings]
	logger  zerolog.Logger
}

func NewGuildSettingsRepository(persist *storage.PersistInstance, logger zerolog.Logger) (*GuildSettingsRepository, error) {
	cached, err := storage.NewCachedStorage(storage.NewStorage[domain.GuildID, domain.GuildSettings]("guild-settings", persist, logger))
	if err != nil {
		return nil, err
	}

	return &GuildSettingsRepository{
		storage: cached,
		logger:  logger,
	}, nil
}

func (r *GuildSettingsRepository) All() []domain.GuildSettings {
	return r.storage.Values()
}

func (r *GuildSettingsRepository) Len() int {
	return r.storage.Len()
}

// Get returns the guild settings, creating and persisting defaults for a
// guild seen for the first time.
func (r *GuildSettingsRepository) Get(guildID domain.GuildID) (domain.GuildSettings, error) {
	return r.storage.GetAndModifyOrInsert(
		guildID,
		func(*domain.GuildSettings) {},
		func() (domain.GuildSettings, bool) {
			r.logger.Debug().Str("guild_id", string(guildID)).Msg("creating default guild settings")
			return domain.NewGuildSettings(guildID), true
		},
	)
}

func (r *GuildSettingsRepository) modify(guildID domain.GuildID, modify func(*domain.GuildSettings)) (domain.GuildSettings, error) {
	return r.storage.GetAndModifyOrInsert(
		guildID,
		modify,
		func() (domain.GuildSettings, bool) {
			settings := domain.NewGuildSettings(guildID)
			modify(&settings)
			return settings, true
		},
	)
}

func (r *GuildSettingsRepository) SetBotChannel(guildID domain.GuildID, channelID *domain.ChannelID) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		settings.BotChannelID = channelID
	})
}

func (r *GuildSettingsRepository) SetClanWarsMapsChannel(guildID domain.GuildID, channelID *domain.ChannelID) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		settings.ClanWarsMapsChannelID = channelID
	})
}

func (r *GuildSettingsRepository) SetContributionChannel(guildID domain.GuildID, channelID *domain.ChannelID) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		settings.ContributionChannelID = channelID
	})
}

func (r *GuildSettingsRepository) SetVerifiedProfileRequirement(guildID domain.GuildID, required bool) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		settings.RequiresVerifiedProfile = required
	})
}

func (r *GuildSettingsRepository) SetClanSettings(guildID domain.GuildID, clan *domain.ClanSettings) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		settings.Clan = clan
	})
}

// ModifyClanSettings mutates the clan block in place. ErrNotFound is
// reported when the guild has no clan configured.
func (r *GuildSettingsRepository) ModifyClanSettings(guildID domain.GuildID, modify func(*domain.ClanSettings)) (domain.GuildSettings, error) {
	missing := false

	settings, err := r.modify(guildID, func(settings *domain.GuildSettings) {
		if settings.Clan == nil {
			missing = true
			return
		}
		modify(settings.Clan)
	})
	if err != nil {
		return domain.GuildSettings{}, err
	}
	if missing {
		return domain.GuildSettings{}, ErrNotFound
	}

	return settings, nil
}

func (r *GuildSettingsRepository) SetClanWarsPostedAt(guildID domain.GuildID, postedAt time.Time) (domain.GuildSettings, error) {
	return r.ModifyClanSettings(guildID, func(clan *domain.ClanSettings) {
		clan.ClanWarsPostedAt = &postedAt
	})
}

func (r *GuildSettingsRepository) SetContributionPostedAt(guildID domain.GuildID, postedAt time.Time) (domain.GuildSettings, error) {
	return r.ModifyClanSettings(guildID, func(clan *domain.ClanSettings) {
		clan.ContributionPostedAt = &postedAt
	})
}

// AddRole inserts a rule into the named role group, replacing a previous
// rule for the same role.
func (r *GuildSettingsRepository) AddRole(guildID domain.GuildID, group string, setting domain.RoleSetting) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		if settings.RoleGroups == nil {
			settings.RoleGroups = map[string][]domain.RoleSetting{}
		}

		kept := make([]domain.RoleSetting, 0, len(settings.RoleGroups[group])+1)
		for _, existing := range settings.RoleGroups[group] {
			if existing.RoleID != setting.RoleID {
				kept = append(kept, existing)
			}
		}
		settings.RoleGroups[group] = append(kept, setting)
	})
}

// RemoveRole drops a rule from the named role group. Empty groups are
// removed entirely.
func (r *GuildSettingsRepository) RemoveRole(guildID domain.GuildID, group string, roleID domain.RoleID) (domain.GuildSettings, error) {
	return r.modify(guildID, func(settings *domain.GuildSettings) {
		kept := make([]domain.RoleSetting, 0, len(settings.RoleGroups[group]))
		for _, existing := range settings.RoleGroups[group] {
			if existing.RoleID != roleID {
				kept = append(kept, existing)
			}
		}

		if len(kept) == 0 {
			delete(settings.RoleGroups, group)
			return
		}
		settings.RoleGroups[group] = kept
	})
}

func (r *GuildSettingsRepository) Restore(values []domain.GuildSettings) error {
	return r.storage.Restore(values)
}
