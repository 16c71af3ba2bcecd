package dictcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDict(t *testing.T) *Dict {
	d, err := Build(map[string]uint64{
		"jakarta":  50,
		"jalan":    900,
		"jalur":    10,
		"sudirman": 30,
		"sudirnan": 1,
		"bandung":  40,
		"":         7,
	})
	require.NoError(t, err)
	return d
}

func TestDict(t *testing.T) {
	d := newTestDict(t)
	assert.Equal(t, 6, d.Len())
	assert.True(t, d.Has("jalan"))
	assert.False(t, d.Has("jala"))

	freq, ok := d.Frequency("jalan")
	assert.True(t, ok)
	assert.Equal(t, uint64(900), freq)

	t.Run("reload from bytes", func(t *testing.T) {
		loaded, err := Load(d.Bytes())
		require.NoError(t, err)
		assert.True(t, loaded.Has("bandung"))
	})
}

func TestFuzzy(t *testing.T) {
	d := newTestDict(t)

	tests := []struct {
		term     string
		maxDist  int
		want     string
		wantDist int
	}{
		{term: "jakrta", maxDist: 1, want: "jakarta", wantDist: 1},
		{term: "jalam", maxDist: 1, want: "jalan", wantDist: 1},
		{term: "sudirmaan", maxDist: 2, want: "sudirman", wantDist: 1},
		{term: "bndng", maxDist: 2, want: "bandung", wantDist: 2},
		{term: "bndng", maxDist: 1, want: "", wantDist: 0},
		{term: "surabaya", maxDist: 2, want: "", wantDist: 0},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, dist, err := d.Fuzzy(tt.term, tt.maxDist)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDist, dist)
		})
	}
}

func TestPrefix(t *testing.T) {
	d := newTestDict(t)

	got, err := d.Prefix("ja", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"jakarta", "jalan", "jalur"}, got)

	got, err = d.Prefix("ja", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = d.Prefix("x", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
