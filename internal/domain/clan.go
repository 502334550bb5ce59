package domain

import "time"

// ClanPeak is the highest capture count ever observed for a clan. Peaks
// only move up; a lower upstream value is ignored.
type ClanPeak struct {
	ClanID            int64     `json:"clanId"`
	ClanTag           string    `json:"clanTag"`
	Peak              int       `json:"peak"`
	PeakDate          time.Time `json:"peakDate"`
	RankedPoolPercent float64   `json:"rankedPoolPercentCaptured"`
	ClanRank          int       `json:"clanRank"`
	ClanPp            float64   `json:"clanPp"`
}

func (c ClanPeak) StorageKey() int64 {
	return c.ClanID
}

func (c ClanPeak) Clone() ClanPeak {
	return c
}
