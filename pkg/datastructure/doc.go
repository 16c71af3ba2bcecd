package datastructure

import (
	"sort"
	"strings"

	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
)

// NewTmpID id feature yang unik lintas layer: ordinal<<32 | id.
func NewTmpID(ordinal int, id uint32) uint64 {
	return uint64(ordinal)<<32 | uint64(id)
}

// SplitTmpID kebalikan NewTmpID.
func SplitTmpID(tmpid uint64) (int, uint32) {
	return int(tmpid >> 32), uint32(tmpid)
}

// Cover satu grid entry yang sudah di decode, ditambah info layer dan subquery yang match.
type Cover struct {
	X       uint32
	Y       uint32
	Zoom    int
	ID      uint32
	TmpID   uint64
	Ordinal int
	Relev   float64
	Score   int
	Mask    uint32
	Text    string
	Prefix  bool
	// Distance jarak ke titik proximity dalam mil. 0 kalau query tanpa proximity.
	Distance  float64
	Scoredist float64
}

// NewCover decode entry e dan isi field dari subquery yang menghasilkannya.
func NewCover(e grid.Entry, ordinal, zoom int, sq Subquery) Cover {
	relev := e.Relev()
	// degenerate dan fuzzy match sedikit lebih rendah dari exact match
	relev -= 0.01 * float64(sq.Distance+sq.EditDistance)
	if relev < 0 {
		relev = 0
	}
	return Cover{
		X:       e.X(),
		Y:       e.Y(),
		Zoom:    zoom,
		ID:      e.ID(),
		TmpID:   NewTmpID(ordinal, e.ID()),
		Ordinal: ordinal,
		Relev:   relev,
		Score:   e.Score(),
		Mask:    sq.Mask,
		Text:    sq.Text(),
		Prefix:  sq.Prefix,
	}
}

// Subquery permutation token query yang match di satu layer.
type Subquery struct {
	Tokens []string
	// Mask posisi token query asli yang di cover subquery ini.
	Mask  uint32
	Ender bool
	// Prefix true kalau match lewat degenerate (autocomplete).
	Prefix       bool
	Phrase       uint64
	Distance     int
	EditDistance int
	Weight       float64
	Entries      []grid.Entry
}

func (s Subquery) Text() string {
	return strings.Join(s.Tokens, " ")
}

// SpatialMatchResult hasil phrase match satu layer.
type SpatialMatchResult struct {
	Ordinal    int
	Layer      string
	Zoom       int
	Subqueries []Subquery
}

// RelevanceReason satu alasan kenapa feature relevan terhadap query, dipakai pass 1.
type RelevanceReason struct {
	Ordinal   int
	ID        uint32
	TmpID     uint64
	Mask      uint32
	Relev     float64
	Score     int
	Claimable int
}

// AddressPoint satu nomor rumah pada feature address.
type AddressPoint struct {
	Number string  `msgpack:"number" json:"number"`
	Lon    float64 `msgpack:"lon" json:"lon"`
	Lat    float64 `msgpack:"lat" json:"lat"`
}

// Feature model info
// @Description feature geografis yang di index: negara, provinsi, kota, kodepos, jalan beserta nomor rumah.
type Feature struct {
	ID    uint32   `msgpack:"id" json:"id"`
	Layer string   `msgpack:"layer" json:"layer"`
	Names []string `msgpack:"names" json:"names"` // names[0] = display text
	// Languages nama per kode bahasa BCP 47, dari tag name:xx.
	Languages map[string][]string `msgpack:"languages,omitempty" json:"languages,omitempty"`
	// Center lon, lat.
	Center [2]float64 `msgpack:"center" json:"center"`
	// BBox minLon, minLat, maxLon, maxLat.
	BBox       [4]float64        `msgpack:"bbox" json:"bbox"`
	Polygon    [][][2]float64    `msgpack:"polygon,omitempty" json:"polygon,omitempty"` // ring pertama outer ring
	Score      float64           `msgpack:"score" json:"score"`
	Addresses  []AddressPoint    `msgpack:"addresses,omitempty" json:"addresses,omitempty"`
	Properties map[string]string `msgpack:"properties,omitempty" json:"properties,omitempty"`
}

func (f Feature) Text() string {
	if len(f.Names) == 0 {
		return ""
	}
	return f.Names[0]
}

// SearchNames Names lalu nama semua bahasa (urut kode bahasa), tanpa duplikat. semua nama ini di index.
func (f Feature) SearchNames() []string {
	if len(f.Languages) == 0 {
		return f.Names
	}
	out := make([]string, 0, len(f.Names)+len(f.Languages))
	seen := make(map[string]struct{}, cap(out))
	add := func(names []string) {
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	add(f.Names)
	codes := make([]string, 0, len(f.Languages))
	for code := range f.Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		add(f.Languages[code])
	}
	return out
}

// ContextEntry satu feature di dalam context.
type ContextEntry struct {
	Feature Feature
	Ordinal int
	TmpID   uint64
}

// Context feature target (Entries[0]) beserta feature yang melingkupinya, urut dari layer paling detail.
type Context struct {
	Entries   []ContextEntry
	Relevance float64
	// Relev relevance pass 1 (spatial match) dari tile asal kandidat.
	Relev     float64
	Scoredist float64
	// Distance jarak target ke titik proximity (mil), Zoom zoom layer target.
	Distance float64
	Zoom     int
	// Omitted true kalau nomor rumah query tidak ketemu dan center jatuh ke jalan.
	Omitted    bool
	TypeIndex  int
	Address    string
	AddressPos int
	Position   int
	Covers     []Cover
}

func (c *Context) Target() *ContextEntry {
	return &c.Entries[0]
}

// Result model info
// @Description hasil geocoding yang sudah di ranking.
type Result struct {
	ID              string            `json:"id"`
	Layer           string            `json:"layer"`
	Text            string            `json:"text"`
	Language        string            `json:"language,omitempty"`
	PlaceName       string            `json:"place_name"`
	Center          [2]float64        `json:"center"`
	BBox            [4]float64        `json:"bbox"`
	Relevance       float64           `json:"relevance"`
	Score           float64           `json:"score"`
	Address         string            `json:"address,omitempty"`
	AddressPosition int               `json:"address_position,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
}
