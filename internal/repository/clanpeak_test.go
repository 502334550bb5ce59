package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatleader-bot/internal/domain"
	"beatleader-bot/internal/storage"
)

func TestClanPeakSetMonotone(t *testing.T) {
	repo, err := NewClanPeakRepository(newTestPersist(t), zerolog.Nop())
	require.NoError(t, err)

	accepted, err := repo.Set(domain.ClanPeak{ClanID: 7, ClanTag: "BSFR", Peak: 120})
	require.NoError(t, err)
	assert.True(t, accepted)

	// equal or lower peaks are ignored
	accepted, err = repo.Set(domain.ClanPeak{ClanID: 7, ClanTag: "BSFR", Peak: 120})
	require.NoError(t, err)
	assert.False(t, accepted)

	accepted, err = repo.Set(domain.ClanPeak{ClanID: 7, ClanTag: "BSFR", Peak: 100})
	require.NoError(t, err)
	assert.False(t, accepted)

	accepted, err = repo.Set(domain.ClanPeak{ClanID: 7, ClanTag: "BSFR", Peak: 121})
	require.NoError(t, err)
	assert.True(t, accepted)

	peak, ok := repo.Get(7)
	require.True(t, ok)
	assert.Equal(t, 121, peak.Peak)
	assert.False(t, peak.PeakDate.IsZero())
}

func TestClanPeakHistoryAppendedOnAccept(t *testing.T) {
	dir := t.TempDir()
	persist, err := storage.NewPersistInstance(dir)
	require.NoError(t, err)

	repo, err := NewClanPeakRepository(persist, zerolog.Nop())
	require.NoError(t, err)

	for _, peak := range []int{10, 5, 20} {
		_, err := repo.Set(domain.ClanPeak{ClanID: 7, ClanTag: "BSFR", Peak: peak})
		require.NoError(t, err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "clan-peak-history.ndjson"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 2)
}
