// Package index exposes the two cell schemes behind one codec seam so the
// HTTP layer and the covering cache stay scheme-agnostic.
package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/model"
)

var ErrUnknownScheme = errors.New("index: unknown scheme")

// Cell is the scheme-neutral view of a decoded cell.
type Cell struct {
	Scheme    string         `json:"scheme"`
	Token     string         `json:"token"`
	Precision int            `json:"precision"`
	Center    geodesy.LatLng `json:"center"`
	Bounds    model.BBox     `json:"bounds"`
	Pentagon  bool           `json:"pentagon,omitempty"`
}

// Codec is one indexing scheme. Precision means quadtree level for s2 and
// hexagonal resolution for h3.
type Codec interface {
	Scheme() string
	MaxPrecision() int
	Encode(ll geodesy.LatLng, precision int) (Cell, error)
	Decode(token string) (Cell, error)
	Parent(token string, precision int) (Cell, error)
	Children(token string) ([]Cell, error)
	Neighbors(token string) ([]Cell, error)
	CellsForBBox(box model.BBox, precision int, opts cover.Options) (cover.Covering, error)
}

var codecs = map[string]Codec{
	"s2": s2Codec{},
	"h3": h3Codec{},
}

// Lookup returns the codec registered under the scheme name.
func Lookup(scheme string) (Codec, error) {
	c, ok := codecs[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return c, nil
}

// Schemes lists the registered scheme names in stable order.
func Schemes() []string {
	out := make([]string, 0, len(codecs))
	for name := range codecs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
