package domain

import (
	"slices"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"beatleader-bot/internal/api"
)

// PlayDate filters maps by when the player last set a score on them.
type PlayDate string

const (
	PlayDateNever       PlayDate = "never"
	PlayDateMonth       PlayDate = "month"
	PlayDateThreeMonths PlayDate = "threeMonths"
	PlayDateSixMonths   PlayDate = "sixMonths"
	PlayDateYear        PlayDate = "year"
	PlayDateNoMatter    PlayDate = "noMatter"
)

// Cutoff returns the oldest acceptable play time, or nil when maps
// must never have been played (or play time does not matter).
func (p PlayDate) Cutoff(now time.Time) *time.Time {
	var days int

	switch p {
	case PlayDateMonth:
		days = 30
	case PlayDateThreeMonths:
		days = 90
	case PlayDateSixMonths:
		days = 180
	case PlayDateYear:
		days = 365
	default:
		return nil
	}

	cutoff := now.AddDate(0, 0, -days)

	return &cutoff
}

type PlaylistDifficulty struct {
	Characteristic string `json:"characteristic"`
	Name           string `json:"name"`
}

type PlaylistItem struct {
	SongName        string               `json:"songName"`
	LevelAuthorName string               `json:"levelAuthorName"`
	Hash            string               `json:"hash"`
	Difficulties    []PlaylistDifficulty `json:"difficulties"`
}

func PlaylistItemFromMap(m BsMap) PlaylistItem {
	return PlaylistItem{
		SongName:        m.SongName,
		LevelAuthorName: m.LevelAuthorName,
		Hash:            m.Hash,
		Difficulties: []PlaylistDifficulty{
			{Characteristic: m.DiffCharacteristic, Name: m.DiffName},
		},
	}
}

type PlaylistCustomData struct {
	SyncURL             string           `json:"syncURL"`
	Owner               string           `json:"owner"`
	Hash                string           `json:"hash"`
	Shared              bool             `json:"shared"`
	ClanTag             string           `json:"clanTag"`
	PlayerID            PlayerID         `json:"playerId"`
	PlaylistType        api.ClanMapsSort `json:"playlistType"`
	LastPlayed          PlayDate         `json:"lastPlayed"`
	Count               int              `json:"count"`
	MaxStars            *float64         `json:"maxStars,omitempty"`
	MaxClanPpDiff       *float64         `json:"maxClanPpDiff,omitempty"`
	FcStatus            *bool            `json:"fcStatus,omitempty"`
	SkipCommanderOrders *bool            `json:"skipCommanderOrders,omitempty"`
}

// Playlist is a Beat Saber playlist in the BPList format. Entries are
// immutable once saved; regeneration always produces a new id.
type Playlist struct {
	ID                  string              `json:"id"`
	AllowDuplicates     bool                `json:"allowDuplicates"`
	PlaylistTitle       string              `json:"playlistTitle"`
	PlaylistAuthor      string              `json:"playlistAuthor"`
	PlaylistDescription string              `json:"playlistDescription"`
	CustomData          *PlaylistCustomData `json:"customData,omitempty"`
	Songs               []PlaylistItem      `json:"songs"`
	Image               string              `json:"image"`
}

// GeneratePlaylistID mints a short url-safe id for sync links.
func GeneratePlaylistID() string {
	return gonanoid.Must()
}

func (p Playlist) StorageKey() string {
	return p.ID
}

func (p Playlist) Clone() Playlist {
	if p.CustomData != nil {
		data := *p.CustomData
		data.MaxStars = clonePtr(data.MaxStars)
		data.MaxClanPpDiff = clonePtr(data.MaxClanPpDiff)
		data.FcStatus = clonePtr(data.FcStatus)
		data.SkipCommanderOrders = clonePtr(data.SkipCommanderOrders)
		p.CustomData = &data
	}

	if p.Songs != nil {
		songs := make([]PlaylistItem, len(p.Songs))
		for i, song := range p.Songs {
			song.Difficulties = slices.Clone(song.Difficulties)
			songs[i] = song
		}
		p.Songs = songs
	}

	return p
}

// WithNewID clones the playlist under a fresh id, rewriting the id
// references embedded in the custom data.
func (p Playlist) WithNewID(serverURL string) Playlist {
	oldID := p.ID
	p.ID = GeneratePlaylistID()

	if p.CustomData != nil {
		data := *p.CustomData
		data.Hash = strings.ReplaceAll(data.Hash, oldID, p.ID)
		data.SyncURL = serverURL + "/playlist/" + string(data.PlayerID) + "/" + p.ID
		p.CustomData = &data
	}

	return p
}
