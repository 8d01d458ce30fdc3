package calendar

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateWritesThenReuses(t *testing.T) {
	dir := t.TempDir()
	r := YearRange{Start: 2025, End: 2026}

	first, err := LoadOrGenerate(dir, r)
	require.NoError(t, err)

	path := ArtifactPath(dir, r)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	second, err := LoadOrGenerate(dir, r)
	require.NoError(t, err)
	require.Len(t, second.Entries(), len(first.Entries()))

	for i, e := range first.Entries() {
		got := second.Entries()[i]
		assert.True(t, e.Monday.Equal(got.Monday))
		assert.Equal(t, e.ISOWeek, got.ISOWeek)
		assert.Equal(t, e.ISOYear, got.ISOYear)
		assert.Equal(t, e.ISOMonth, got.ISOMonth)
		assert.Equal(t, e.WeekInMonth, got.WeekInMonth)
	}
}

func TestArtifactPathIncludesRange(t *testing.T) {
	assert.NotEqual(t,
		ArtifactPath("cal", YearRange{Start: 2024, End: 2025}),
		ArtifactPath("cal", YearRange{Start: 2024, End: 2026}))
}
