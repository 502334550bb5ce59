package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"beatleader-bot/internal/api"
)

type BsMapType string

const (
	BsMapTypeCommanderOrder BsMapType = "commanderOrder"
	BsMapTypeMapListSkip    BsMapType = "mapListSkip"
	BsMapTypePersonal       BsMapType = "personal"
	BsMapTypePersonalBan    BsMapType = "personalBan"
)

// BsMap is a single pinned map entry. Depending on its type it acts as
// a commander order, a map list ban or a personal bookmark.
type BsMap struct {
	MapID              string     `json:"mapId"`
	CreatedBy          UserID     `json:"createdBy"`
	CreatedAt          *time.Time `json:"createdAt"`
	LeaderboardID      string     `json:"leaderboardId"`
	UserID             *UserID    `json:"userId"`
	SongName           string     `json:"songName"`
	LevelAuthorName    string     `json:"levelAuthorName"`
	Hash               string     `json:"hash"`
	DiffCharacteristic string     `json:"diffCharacteristic"`
	DiffName           string     `json:"diffName"`
	Stars              float64    `json:"stars"`
	MapType            BsMapType  `json:"mapType"`
	ClanTag            string     `json:"clanTag,omitempty"`
}

func NewBsMap(addedBy UserID, leaderboard api.Leaderboard, mapType BsMapType, userID *UserID, clanTag string) BsMap {
	now := time.Now().UTC()

	return BsMap{
		MapID:              uuid.NewString(),
		CreatedBy:          addedBy,
		CreatedAt:          &now,
		LeaderboardID:      leaderboard.ID,
		UserID:             userID,
		SongName:           leaderboard.Song.Name,
		LevelAuthorName:    leaderboard.Song.Author,
		Hash:               leaderboard.Song.Hash,
		DiffCharacteristic: leaderboard.Difficulty.ModeName,
		DiffName:           leaderboard.Difficulty.DifficultyName,
		Stars:              leaderboard.Difficulty.Stars,
		MapType:            mapType,
		ClanTag:            clanTag,
	}
}

func (m BsMap) StorageKey() string {
	return m.MapID
}

func (m BsMap) Clone() BsMap {
	m.CreatedAt = clonePtr(m.CreatedAt)
	m.UserID = clonePtr(m.UserID)
	return m
}

// Markdown renders a linked song title for Discord messages.
func (m BsMap) Markdown() string {
	return fmt.Sprintf(
		"[%s / %s](<https://www.beatleader.com/leaderboard/clanranking/%s/1>)",
		m.SongName, m.DiffName, m.LeaderboardID,
	)
}
