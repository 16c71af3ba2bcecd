package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeLines(t *testing.T) {
	in := "Jalan Braga\n\n107.6,-6.9\n"
	var out bytes.Buffer
	require.NoError(t, tokenizeLines(strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var first usecases.TokenizeResult
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, []string{"jalan", "braga"}, first.Tokens)
	assert.Equal(t, []uint64{termops.EncodeTerm("jalan"), termops.EncodeTerm("braga")}, first.Terms)

	assert.JSONEq(t, `{"tokens":[],"terms":[]}`, lines[1])

	var third usecases.TokenizeResult
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, []float64{107.6, -6.9}, third.LonLat)
}
