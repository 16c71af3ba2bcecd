package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
)

var ErrBadFeatureLine = errors.New("bad feature line")

// maxLineSize polygon negara bisa puluhan MB dalam satu baris.
const maxLineSize = 64 << 20

// LoadGeoJSONLines baca satu feature json per baris. baris kosong di skip.
func LoadGeoJSONLines(r io.Reader) ([]datastructure.Feature, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineSize)

	features := []datastructure.Feature{}
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var f datastructure.Feature
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrBadFeatureLine, line, err)
		}
		if f.Layer == "" || len(f.Names) == 0 {
			return nil, fmt.Errorf("%w %d: layer and names are required", ErrBadFeatureLine, line)
		}
		if f.BBox == [4]float64{} {
			f.BBox = [4]float64{f.Center[0], f.Center[1], f.Center[0], f.Center[1]}
		}
		features = append(features, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	return features, nil
}
