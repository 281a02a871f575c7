// Package source turns play requests (local paths, URLs, bundled resources,
// raw bytes, synthesized speech) into encoded audio buffers, memoizing reads
// and downloads in a two-tier cache.
package source

import "fmt"

// Kind identifies where a request's bytes come from.
type Kind int

const (
	KindPath Kind = iota
	KindURL
	KindBytes
	KindResource
	KindSpeech
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindURL:
		return "url"
	case KindBytes:
		return "bytes"
	case KindResource:
		return "resource"
	case KindSpeech:
		return "speech"
	default:
		return "unknown"
	}
}

// Request is a single item to play. Location holds the path, URL, resource
// name or speech text depending on Kind; Data is used by KindBytes only.
type Request struct {
	Kind     Kind
	Location string
	Data     []byte
	UseCache bool
}

// Path requests a file on the local file system.
func Path(path string) Request {
	return Request{Kind: KindPath, Location: path, UseCache: true}
}

// URL requests a file:// URL (local tier) or an http(s) URL (remote tier).
func URL(rawURL string) Request {
	return Request{Kind: KindURL, Location: rawURL, UseCache: true}
}

// Bytes plays an in-memory buffer. It never touches the cache.
func Bytes(data []byte) Request {
	return Request{Kind: KindBytes, Data: data}
}

// Resource requests a file by name from the configured bundle.
func Resource(name string) Request {
	return Request{Kind: KindResource, Location: name, UseCache: true}
}

// Speech requests synthesized speech for the given text.
func Speech(text string) Request {
	return Request{Kind: KindSpeech, Location: text, UseCache: true}
}

// WithoutCache returns a copy of r that bypasses cache lookups. A successful
// load is still stored.
func (r Request) WithoutCache() Request {
	r.UseCache = false
	return r
}

func (r Request) String() string {
	if r.Kind == KindBytes {
		return fmt.Sprintf("bytes(%d)", len(r.Data))
	}
	return fmt.Sprintf("%s(%s)", r.Kind, r.Location)
}
