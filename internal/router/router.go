// Package router validates API requests and serves the cell endpoints.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/open-spatial/geocell/internal/cache/coverindex"
	"github.com/open-spatial/geocell/internal/config"
	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/index"
	"github.com/open-spatial/geocell/internal/model"
	"github.com/open-spatial/geocell/internal/observability"
)

type API struct {
	log   *slog.Logger
	cfg   config.Config
	cache *coverindex.Store // nil disables covering caching
}

func New(log *slog.Logger, cfg config.Config, cache *coverindex.Store) *API {
	return &API{log: log, cfg: cfg, cache: cache}
}

func (a *API) Routes(r chi.Router) {
	r.Get("/v1/schemes", a.handleSchemes)
	r.Get("/v1/encode", instrument("/v1/encode", a.handleEncode))
	r.Get("/v1/cover", instrument("/v1/cover", a.handleCover))
	r.Route("/v1/cells/{token}", func(r chi.Router) {
		r.Get("/", instrument("/v1/cells/{token}", a.handleDecode))
		r.Get("/parent", instrument("/v1/cells/{token}/parent", a.handleParent))
		r.Get("/children", instrument("/v1/cells/{token}/children", a.handleChildren))
		r.Get("/neighbors", instrument("/v1/cells/{token}/neighbors", a.handleNeighbors))
	})
}

func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (a *API) handleSchemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"schemes": index.Schemes()})
}

func (a *API) handleEncode(w http.ResponseWriter, r *http.Request) {
	codec, err := a.codecFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ll, err := parseLatLng(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	precision, err := a.parsePrecision(r, codec.MaxPrecision())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cell, err := codec.Encode(ll, precision)
	observability.ObserveIndexOp("encode", codec.Scheme(), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

func (a *API) handleDecode(w http.ResponseWriter, r *http.Request) {
	codec, err := a.codecFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cell, err := codec.Decode(chi.URLParam(r, "token"))
	observability.ObserveIndexOp("decode", codec.Scheme(), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

func (a *API) handleParent(w http.ResponseWriter, r *http.Request) {
	codec, err := a.codecFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("precision"))
	if raw == "" {
		http.Error(w, "missing required parameter: precision", http.StatusBadRequest)
		return
	}
	precision, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid precision: %v", err), http.StatusBadRequest)
		return
	}

	cell, err := codec.Parent(chi.URLParam(r, "token"), precision)
	observability.ObserveIndexOp("parent", codec.Scheme(), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

func (a *API) handleChildren(w http.ResponseWriter, r *http.Request) {
	codec, err := a.codecFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cells, err := codec.Children(chi.URLParam(r, "token"))
	observability.ObserveIndexOp("children", codec.Scheme(), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cells": cells})
}

func (a *API) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	codec, err := a.codecFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cells, err := codec.Neighbors(chi.URLParam(r, "token"))
	observability.ObserveIndexOp("neighbors", codec.Scheme(), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cells": cells})
}

type coverResponse struct {
	Scheme    string   `json:"scheme"`
	Precision int      `json:"precision"`
	Degraded  bool     `json:"degraded,omitempty"`
	Min       string   `json:"min"`
	Max       string   `json:"max"`
	Count     int      `json:"count"`
	Tokens    []string `json:"tokens"`
}

func (a *API) handleCover(w http.ResponseWriter, r *http.Request) {
	codec, err := a.codecFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	box, err := parseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	precision, err := a.parsePrecision(r, codec.MaxPrecision())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	maxCells, err := a.parseMaxCells(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	scheme := codec.Scheme()
	if a.cache != nil {
		if cov, ok := a.cache.Get(r.Context(), scheme, precision, box, maxCells); ok {
			writeJSON(w, http.StatusOK, coverResp(scheme, cov))
			return
		}
	}

	cov, err := codec.CellsForBBox(box, precision, cover.Options{MaxCells: maxCells})
	observability.ObserveIndexOp("cover", scheme, err)
	if err != nil {
		if errors.Is(err, cover.ErrInvalidBox) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.log.Error("covering failed", "scheme", scheme, "bbox", box.String(), "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	observability.ObserveCovering(scheme, len(cov.Tokens), cov.Degraded)

	if a.cache != nil {
		if err := a.cache.Put(r.Context(), scheme, precision, box, maxCells, cov); err != nil {
			a.log.Warn("covering cache write failed", "scheme", scheme, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, coverResp(scheme, cov))
}

func coverResp(scheme string, cov cover.Covering) coverResponse {
	return coverResponse{
		Scheme:    scheme,
		Precision: cov.Precision,
		Degraded:  cov.Degraded,
		Min:       cov.Min,
		Max:       cov.Max,
		Count:     len(cov.Tokens),
		Tokens:    cov.Tokens,
	}
}

func (a *API) codecFor(r *http.Request) (index.Codec, error) {
	scheme := strings.TrimSpace(r.URL.Query().Get("scheme"))
	if scheme == "" {
		scheme = a.cfg.Scheme
	}
	codec, err := index.Lookup(scheme)
	if err != nil {
		return nil, fmt.Errorf("unknown scheme %q (have %s)", scheme, strings.Join(index.Schemes(), ", "))
	}
	return codec, nil
}

func (a *API) parsePrecision(r *http.Request, maxPrecision int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("precision"))
	if raw == "" {
		p := a.cfg.Precision
		if p > maxPrecision {
			p = maxPrecision
		}
		return p, nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid precision: %w", err)
	}
	if p < 0 || p > maxPrecision {
		return 0, fmt.Errorf("precision must be in [0,%d]", maxPrecision)
	}
	return p, nil
}

func (a *API) parseMaxCells(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("max_cells"))
	if raw == "" {
		return a.cfg.CoverMaxCells, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid max_cells: %w", err)
	}
	if n < 1 {
		return 0, errors.New("max_cells must be positive")
	}
	if limit := a.cfg.CoverMaxCellsLimit; limit > 0 && n > limit {
		n = limit
	}
	return n, nil
}

func parseLatLng(r *http.Request) (geodesy.LatLng, error) {
	lat, err := parseFloat(r.URL.Query().Get("lat"))
	if err != nil {
		return geodesy.LatLng{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFloat(r.URL.Query().Get("lng"))
	if err != nil {
		return geodesy.LatLng{}, fmt.Errorf("lng: %w", err)
	}
	ll := geodesy.LatLng{Lat: lat, Lng: lng}
	if err := geodesy.Check(ll); err != nil {
		return geodesy.LatLng{}, err
	}
	return ll, nil
}

// parseBBox reads "west,south,east,north" in degrees. West greater than east
// means the box crosses the antimeridian.
func parseBBox(raw string) (model.BBox, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 4 {
		return model.BBox{}, errors.New("bbox: expected 4 comma-separated values: west,south,east,north")
	}
	west, err := parseFloat(parts[0])
	if err != nil {
		return model.BBox{}, fmt.Errorf("bbox west: %w", err)
	}
	south, err := parseFloat(parts[1])
	if err != nil {
		return model.BBox{}, fmt.Errorf("bbox south: %w", err)
	}
	east, err := parseFloat(parts[2])
	if err != nil {
		return model.BBox{}, fmt.Errorf("bbox east: %w", err)
	}
	north, err := parseFloat(parts[3])
	if err != nil {
		return model.BBox{}, fmt.Errorf("bbox north: %w", err)
	}

	if !(west >= -180 && west <= 180 && east >= -180 && east <= 180) {
		return model.BBox{}, errors.New("bbox: longitude must be in [-180,180]")
	}
	if !(south >= -90 && south <= 90 && north >= -90 && north <= 90) {
		return model.BBox{}, errors.New("bbox: latitude must be in [-90,90]")
	}
	if north <= south {
		return model.BBox{}, errors.New("bbox: north must be greater than south")
	}
	return model.BBox{South: south, West: west, North: north, East: east}, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
