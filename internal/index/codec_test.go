package index

import (
	"errors"
	"testing"

	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/model"
)

func TestLookup_KnownAndUnknownSchemes(t *testing.T) {
	for _, name := range []string{"s2", "h3"} {
		c, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if c.Scheme() != name {
			t.Fatalf("codec %s reports scheme %s", name, c.Scheme())
		}
	}
	if _, err := Lookup("geohash"); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("unknown scheme: %v", err)
	}
	schemes := Schemes()
	if len(schemes) != 2 || schemes[0] != "h3" || schemes[1] != "s2" {
		t.Fatalf("schemes = %v", schemes)
	}
}

func TestCodecs_EncodeDecodeAgree(t *testing.T) {
	ll := geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}
	for _, name := range Schemes() {
		c, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		enc, err := c.Encode(ll, 7)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		if enc.Scheme != name || enc.Precision != 7 || enc.Token == "" {
			t.Fatalf("%s cell malformed: %+v", name, enc)
		}
		dec, err := c.Decode(enc.Token)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if dec != enc {
			t.Fatalf("%s decode mismatch:\n enc %+v\n dec %+v", name, enc, dec)
		}
		if !dec.Bounds.Contains(ll.Lat, ll.Lng) {
			t.Fatalf("%s bounds %v exclude encoded point", name, dec.Bounds)
		}
	}
}

func TestCodecs_HierarchyThroughTokens(t *testing.T) {
	ll := geodesy.LatLng{Lat: -33.8688, Lng: 151.2093}
	for _, name := range Schemes() {
		c, _ := Lookup(name)
		enc, err := c.Encode(ll, 6)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}

		p, err := c.Parent(enc.Token, 3)
		if err != nil {
			t.Fatalf("%s parent: %v", name, err)
		}
		if p.Precision != 3 || !p.Bounds.Contains(enc.Center.Lat, enc.Center.Lng) {
			t.Fatalf("%s parent %+v does not cover child", name, p)
		}
		if _, err := c.Parent(enc.Token, 7); err == nil {
			t.Fatalf("%s accepted finer precision as parent", name)
		}

		kids, err := c.Children(enc.Token)
		if err != nil {
			t.Fatalf("%s children: %v", name, err)
		}
		want := 4
		if name == "h3" {
			want = 7
		}
		if len(kids) != want {
			t.Fatalf("%s has %d children, want %d", name, len(kids), want)
		}
		for _, k := range kids {
			back, err := c.Parent(k.Token, 6)
			if err != nil || back.Token != enc.Token {
				t.Fatalf("%s child %s parent = %+v, %v", name, k.Token, back, err)
			}
		}

		ns, err := c.Neighbors(enc.Token)
		if err != nil {
			t.Fatalf("%s neighbors: %v", name, err)
		}
		wantN := 8
		if name == "h3" {
			wantN = 6
		}
		if len(ns) != wantN {
			t.Fatalf("%s has %d neighbors, want %d", name, len(ns), wantN)
		}
	}
}

func TestCellsForBBox_CoversBoxedPoints(t *testing.T) {
	box := model.BBox{South: 59.2, West: 17.8, North: 59.45, East: 18.3}
	inside := []geodesy.LatLng{
		{Lat: 59.3293, Lng: 18.0686},
		{Lat: 59.21, Lng: 17.81},
		{Lat: 59.44, Lng: 18.29},
	}
	for _, name := range Schemes() {
		c, _ := Lookup(name)
		cov, err := c.CellsForBBox(box, 6, cover.Options{MaxCells: 4096})
		if err != nil {
			t.Fatalf("%s cover: %v", name, err)
		}
		if cov.Degraded || cov.Precision != 6 {
			t.Fatalf("%s cover degraded unexpectedly: %+v", name, cov)
		}
		set := map[string]bool{}
		for _, tok := range cov.Tokens {
			set[tok] = true
		}
		for _, ll := range inside {
			enc, err := c.Encode(ll, 6)
			if err != nil {
				t.Fatalf("%s encode: %v", name, err)
			}
			if !set[enc.Token] {
				t.Fatalf("%s covering misses %v (%s)", name, ll, enc.Token)
			}
		}
		if cov.Min > cov.Max {
			t.Fatalf("%s min %s > max %s", name, cov.Min, cov.Max)
		}
	}
}

func TestCellsForBBox_DegradesUnderTinyCap(t *testing.T) {
	box := model.BBox{South: -20, West: -40, North: 20, East: 40}
	for _, name := range Schemes() {
		c, _ := Lookup(name)
		cov, err := c.CellsForBBox(box, 8, cover.Options{MaxCells: 8})
		if err != nil {
			t.Fatalf("%s cover: %v", name, err)
		}
		if !cov.Degraded || cov.Precision >= 8 {
			t.Fatalf("%s did not degrade: %+v", name, cov)
		}
	}
}
