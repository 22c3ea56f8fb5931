// Package coverindex caches computed coverings behind a small in-process LRU
// with an optional Redis layer shared across replicas.
package coverindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/open-spatial/geocell/internal/cache/keys"
	"github.com/open-spatial/geocell/internal/cache/redisstore"
	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/index"
	"github.com/open-spatial/geocell/internal/model"
	"github.com/open-spatial/geocell/internal/observability"
)

type Store struct {
	log       *slog.Logger
	cli       *redisstore.Client // nil means in-process only
	lru       *lru.Cache[string, cover.Covering]
	ttl       time.Duration
	opTimeout time.Duration
}

func New(cli *redisstore.Client, lruSize int, ttl, opTimeout time.Duration, log *slog.Logger) (*Store, error) {
	if lruSize <= 0 {
		lruSize = 4096
	}
	c, err := lru.New[string, cover.Covering](lruSize)
	if err != nil {
		return nil, fmt.Errorf("coverindex lru: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		log:       log,
		cli:       cli,
		lru:       c,
		ttl:       ttl,
		opTimeout: opTimeout,
	}, nil
}

// Get returns the cached covering for the request, if any. Redis failures
// degrade to a miss rather than an error; the caller recomputes.
func (s *Store) Get(ctx context.Context, scheme string, precision int, box model.BBox, maxCells int) (cover.Covering, bool) {
	key := keys.Covering(scheme, precision, box, maxCells)

	if cov, ok := s.lru.Get(key); ok {
		observability.IncCacheHit()
		return cov, true
	}
	if s.cli == nil {
		observability.IncCacheMiss()
		return cover.Covering{}, false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	found, err := s.cli.MGet(opCtx, []string{key})
	if err != nil {
		s.log.Warn("covering cache read failed", "key", key, "err", err)
		observability.IncCacheMiss()
		return cover.Covering{}, false
	}
	raw, ok := found[key]
	if !ok || len(raw) == 0 {
		observability.IncCacheMiss()
		return cover.Covering{}, false
	}

	var cov cover.Covering
	if err := json.Unmarshal(raw, &cov); err != nil {
		s.log.Warn("covering cache entry corrupt", "key", key, "err", err)
		observability.IncCacheMiss()
		return cover.Covering{}, false
	}
	s.lru.Add(key, cov)
	observability.IncCacheHit()
	return cov, true
}

// Put stores the covering and indexes it under each of its cell tokens so
// token-based invalidation can find it later.
func (s *Store) Put(ctx context.Context, scheme string, precision int, box model.BBox, maxCells int, cov cover.Covering) error {
	key := keys.Covering(scheme, precision, box, maxCells)
	s.lru.Add(key, cov)

	if s.cli == nil {
		return nil
	}

	payload, err := json.Marshal(cov)
	if err != nil {
		return fmt.Errorf("coverindex encode covering: %w", err)
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.cli.Set(opCtx, key, payload, s.ttl); err != nil {
		return fmt.Errorf("coverindex store covering: %w", err)
	}
	for _, tok := range cov.Tokens {
		// The set outlives the entry slightly so an expired covering can
		// still be swept by a late invalidation.
		if err := s.cli.SAdd(opCtx, keys.TokenSet(scheme, tok), s.ttl+time.Minute, key); err != nil {
			return fmt.Errorf("coverindex index token %q: %w", tok, err)
		}
	}
	return nil
}

// Invalidate drops every cached covering that mentions one of the tokens.
// The in-process layer is purged wholesale; it is small and refills fast.
func (s *Store) Invalidate(ctx context.Context, scheme string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	s.lru.Purge()

	if s.cli == nil {
		return nil
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var errs []error
	dropped := 0
	for _, set := range s.sweepSets(scheme, tokens) {
		members, err := s.cli.SMembers(opCtx, set)
		if err != nil {
			errs = append(errs, fmt.Errorf("set %q: %w", set, err))
			continue
		}
		if err := s.cli.Del(opCtx, append(members, set)...); err != nil {
			errs = append(errs, fmt.Errorf("set %q: %w", set, err))
			continue
		}
		dropped += len(members)
	}
	if dropped > 0 {
		s.log.Info("coverings invalidated", "scheme", scheme, "tokens", len(tokens), "dropped", dropped)
	}
	return errors.Join(errs...)
}

// sweepSets names the reverse-index sets to sweep for the tokens. Each token
// is expanded with its ancestors so a fine-grained event also drops coarser
// coverings that contain the cell. Coverings finer than the event cell are
// caught only by the local purge; producers should publish at or below the
// precision their consumers cover at.
func (s *Store) sweepSets(scheme string, tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var sets []string
	add := func(tok string) {
		set := keys.TokenSet(scheme, tok)
		if _, ok := seen[set]; ok {
			return
		}
		seen[set] = struct{}{}
		sets = append(sets, set)
	}

	codec, err := index.Lookup(scheme)
	for _, tok := range tokens {
		add(tok)
		if err != nil {
			continue
		}
		cell, derr := codec.Decode(tok)
		if derr != nil {
			continue
		}
		for p := cell.Precision - 1; p >= 0; p-- {
			parent, perr := codec.Parent(tok, p)
			if perr != nil {
				break
			}
			add(parent.Token)
		}
	}
	return sets
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
