package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Synthesizer renders text into an encoded audio buffer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type ResolverConfig struct {
	Files       FileReader  // defaults to OSFiles
	Fetcher     Fetcher     // defaults to an HTTPFetcher without timeout
	Bundle      Bundle      // optional; Resource requests fail without it
	Synthesizer Synthesizer // optional; Speech requests fail without it
	Logger      zerolog.Logger
}

// Resolver normalizes requests into byte buffers. It knows nothing about
// playback order.
type Resolver struct {
	cache   *Cache
	files   FileReader
	fetcher Fetcher
	bundle  Bundle
	synth   Synthesizer
	group   singleflight.Group
	log     zerolog.Logger
}

func NewResolver(config ResolverConfig) *Resolver {
	if config.Files == nil {
		config.Files = OSFiles{}
	}
	if config.Fetcher == nil {
		config.Fetcher = NewHTTPFetcher(0)
	}
	return &Resolver{
		cache:   NewCache(),
		files:   config.Files,
		fetcher: config.Fetcher,
		bundle:  config.Bundle,
		synth:   config.Synthesizer,
		log:     config.Logger,
	}
}

// Cache exposes the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// ClearCache empties the selected cache tiers.
func (r *Resolver) ClearCache(t Tier) {
	r.cache.Clear(t)
}

// Resolve returns the encoded bytes for req, consulting and populating the
// cache according to req.UseCache.
func (r *Resolver) Resolve(ctx context.Context, req Request) ([]byte, error) {
	switch req.Kind {
	case KindBytes:
		return req.Data, nil

	case KindPath:
		if err := checkPath(req.Location); err != nil {
			return nil, err
		}
		return r.readLocal(req.Location, req.Location, req.UseCache)

	case KindURL:
		return r.resolveURL(ctx, req)

	case KindResource:
		if req.Location == "" {
			return nil, invalid("empty resource name")
		}
		if r.bundle == nil {
			return nil, fmt.Errorf("%w: no bundle configured for %q", ErrResourceUnavailable, req.Location)
		}
		path, ok := r.bundle.Lookup(req.Location)
		if !ok {
			return nil, fmt.Errorf("%w: resource %q not found", ErrResourceUnavailable, req.Location)
		}
		return r.readLocal(path, path, req.UseCache)

	case KindSpeech:
		text := strings.TrimSpace(req.Location)
		if text == "" {
			return nil, invalid("empty speech text")
		}
		if r.synth == nil {
			return nil, ErrSpeechUnavailable
		}
		key := "speech:" + text
		return r.load(TierRemote, key, req.UseCache, func() ([]byte, error) {
			data, err := r.synth.Synthesize(ctx, text)
			if err != nil {
				return nil, &FetchError{URL: key, Reason: err.Error(), Err: err}
			}
			return data, nil
		})

	default:
		return nil, invalid("unknown request kind %d", req.Kind)
	}
}

func (r *Resolver) resolveURL(ctx context.Context, req Request) ([]byte, error) {
	raw := req.Location
	if raw == "" {
		return nil, invalid("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalid("%v", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return nil, invalid("file url without path: %s", raw)
		}
		return r.readLocal(u.Path, raw, req.UseCache)
	case "http", "https":
		if u.Host == "" {
			return nil, invalid("url without host: %s", raw)
		}
		return r.load(TierRemote, raw, req.UseCache, func() ([]byte, error) {
			return r.fetcher.Fetch(ctx, raw)
		})
	default:
		return nil, invalid("unsupported url scheme %q", u.Scheme)
	}
}

func (r *Resolver) readLocal(path, key string, useCache bool) ([]byte, error) {
	return r.load(TierLocal, key, useCache, func() ([]byte, error) {
		data, err := r.files.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, path, err)
		}
		return data, nil
	})
}

// load returns the cached value for key or runs read and stores its result.
// Concurrent cached loads of one key share a single read.
func (r *Resolver) load(t Tier, key string, useCache bool, read func() ([]byte, error)) ([]byte, error) {
	if !useCache {
		data, err := read()
		if err != nil {
			return nil, err
		}
		r.cache.Put(t, key, data)
		return data, nil
	}

	if data, ok := r.cache.Get(t, key); ok {
		r.log.Debug().Str("key", key).Msg("cache hit")
		return data, nil
	}

	v, err, _ := r.group.Do(fmt.Sprintf("%d|%s", t, key), func() (any, error) {
		if data, ok := r.cache.Get(t, key); ok {
			return data, nil
		}
		data, err := read()
		if err != nil {
			return nil, err
		}
		r.cache.Put(t, key, data)
		r.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("cached")
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func checkPath(p string) error {
	if p == "" {
		return invalid("empty path")
	}
	if strings.ContainsRune(p, 0) {
		return invalid("path contains NUL byte")
	}
	return nil
}
