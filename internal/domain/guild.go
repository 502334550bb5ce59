package domain

import (
	"slices"
	"sort"
	"time"
)

type PlayerMetric string

const (
	MetricTopPp       PlayerMetric = "topPp"
	MetricTopAcc      PlayerMetric = "topAcc"
	MetricTotalPp     PlayerMetric = "totalPp"
	MetricRank        PlayerMetric = "rank"
	MetricCountryRank PlayerMetric = "countryRank"
	MetricMaxStreak   PlayerMetric = "maxStreak"
)

type MetricCondition string

const (
	ConditionLessThan             MetricCondition = "lessThan"
	ConditionLessThanOrEqualTo    MetricCondition = "lessThanOrEqualTo"
	ConditionEqualTo              MetricCondition = "equalTo"
	ConditionGreaterThan          MetricCondition = "greaterThan"
	ConditionGreaterThanOrEqualTo MetricCondition = "greaterThanOrEqualTo"
)

type MetricWithValue struct {
	Metric PlayerMetric `json:"metric"`
	Value  float64      `json:"value"`
}

// Fulfilled evaluates the rule condition against the player's live value.
func (m MetricWithValue) Fulfilled(condition MetricCondition, actual float64) bool {
	switch condition {
	case ConditionLessThan:
		return actual < m.Value
	case ConditionLessThanOrEqualTo:
		return actual <= m.Value
	case ConditionEqualTo:
		return actual == m.Value
	case ConditionGreaterThan:
		return actual > m.Value
	case ConditionGreaterThanOrEqualTo:
		return actual >= m.Value
	default:
		return false
	}
}

// RoleSetting is one rule inside a role group. Of all matching rules in a
// group, the highest weight wins and its role is the desired one.
type RoleSetting struct {
	RoleID    RoleID          `json:"roleId"`
	Weight    int             `json:"weight"`
	Condition MetricCondition `json:"condition"`
	Metric    MetricWithValue `json:"metric"`
}

// ClanSettings is the per-guild clan-wars block.
type ClanSettings struct {
	ClanID        int64    `json:"clanId"`
	ClanTag       string   `json:"clan"`
	OwnerPlayerID PlayerID `json:"owner"`
	OwnerUserID   UserID   `json:"ownerUserId"`

	SelfInvite      bool `json:"selfInvite"`
	OAuthConfigured bool `json:"oauthTokenSet"`

	Soldiers      []UserID `json:"soldiers"`
	SoldierRoleID *RoleID  `json:"soldierRole"`

	ClanWarsPostedAt     *time.Time `json:"clanWarsPostedAt"`
	ContributionPostedAt *time.Time `json:"clanWarsContributionPostedAt"`
}

func (c *ClanSettings) Clone() *ClanSettings {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Soldiers = slices.Clone(c.Soldiers)
	clone.SoldierRoleID = clonePtr(c.SoldierRoleID)
	clone.ClanWarsPostedAt = clonePtr(c.ClanWarsPostedAt)
	clone.ContributionPostedAt = clonePtr(c.ContributionPostedAt)
	return &clone
}

func (c *ClanSettings) IsSoldier(userID UserID) bool {
	for _, soldier := range c.Soldiers {
		if soldier == userID {
			return true
		}
	}
	return false
}

type GuildSettings struct {
	GuildID GuildID `json:"guildId"`

	BotChannelID          *ChannelID `json:"botChannelId"`
	ClanWarsMapsChannelID *ChannelID `json:"clanWarsMapsChannelId"`
	ContributionChannelID *ChannelID `json:"clanWarsContributionChannelId"`

	RequiresVerifiedProfile bool `json:"requiresVerifiedProfile"`

	RoleGroups map[string][]RoleSetting `json:"roleGroups"`

	Clan *ClanSettings `json:"clanSettings"`
}

func (g GuildSettings) StorageKey() GuildID {
	return g.GuildID
}

func (g GuildSettings) Clone() GuildSettings {
	g.BotChannelID = clonePtr(g.BotChannelID)
	g.ClanWarsMapsChannelID = clonePtr(g.ClanWarsMapsChannelID)
	g.ContributionChannelID = clonePtr(g.ContributionChannelID)
	g.Clan = g.Clan.Clone()

	if g.RoleGroups != nil {
		groups := make(map[string][]RoleSetting, len(g.RoleGroups))
		for name, settings := range g.RoleGroups {
			groups[name] = slices.Clone(settings)
		}
		g.RoleGroups = groups
	}

	return g
}

func NewGuildSettings(guildID GuildID) GuildSettings {
	return GuildSettings{
		GuildID:    guildID,
		RoleGroups: map[string][]RoleSetting{},
	}
}

// RoleUpdates is the reconciliation diff for one (guild, user) pair.
type RoleUpdates struct {
	GuildID    GuildID
	UserID     UserID
	PlayerName string
	ToAdd      []RoleID
	ToRemove   []RoleID
}

func (u *RoleUpdates) IsChanged() bool {
	return len(u.ToAdd) > 0 || len(u.ToRemove) > 0
}

// RoleUpdates computes the desired diff for a player's current roles.
// Within each group at most one role survives: the highest-weight rule
// whose condition the player fulfills. Roles the guild does not manage are
// untouched.
func (g *GuildSettings) RoleUpdates(player *Player, currentRoles []RoleID) RoleUpdates {
	updates := RoleUpdates{
		GuildID:    g.GuildID,
		UserID:     player.UserID,
		PlayerName: player.Name,
	}

	current := make(map[RoleID]bool, len(currentRoles))
	for _, role := range currentRoles {
		current[role] = true
	}

	groupNames := make([]string, 0, len(g.RoleGroups))
	for name := range g.RoleGroups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	for _, name := range groupNames {
		settings := g.RoleGroups[name]

		var desired *RoleSetting
		for i := range settings {
			setting := &settings[i]
			actual := player.MetricValue(setting.Metric.Metric)
			if !setting.Metric.Fulfilled(setting.Condition, actual) {
				continue
			}
			if desired == nil || setting.Weight > desired.Weight {
				desired = setting
			}
		}

		for i := range settings {
			roleID := settings[i].RoleID
			held := current[roleID]
			wanted := desired != nil && desired.RoleID == roleID

			switch {
			case wanted && !held:
				updates.ToAdd = append(updates.ToAdd, roleID)
			case !wanted && held:
				updates.ToRemove = append(updates.ToRemove, roleID)
			}
		}
	}

	return updates
}
