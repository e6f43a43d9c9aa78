// Package source turns process arguments and open-url payloads into a
// validated image reference.
package source

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// DefaultScheme is the custom protocol the application registers
const DefaultScheme = "etcher"

// automationPlaceholder is the URL test drivers pass as the last argument
const automationPlaceholder = "data:,"

// Reference is a resolved image location: an http(s) URL, a custom scheme
// payload with the scheme removed, or the path of a regular file.
type Reference string

// String returns the reference as sent to the frontend
func (r Reference) String() string { return string(r) }

// Resolver resolves argument vectors to a Reference
type Resolver struct {
	// Packaged binaries get one runtime-internal argument, development runs two
	Packaged bool
	// Platform defaults to runtime.GOOS
	Platform string
	// Scheme is the custom protocol without "://"
	Scheme string

	fs afero.Fs
}

// Option customises a Resolver
type Option func(*Resolver)

// WithFs replaces the filesystem used for the regular-file check
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) { r.fs = fs }
}

// WithPlatform overrides runtime.GOOS
func WithPlatform(goos string) Option {
	return func(r *Resolver) { r.Platform = goos }
}

// WithScheme overrides the custom protocol name
func WithScheme(scheme string) Option {
	return func(r *Resolver) {
		if scheme != "" {
			r.Scheme = strings.TrimSuffix(scheme, "://")
		}
	}
}

// NewResolver builds a resolver over the OS filesystem
func NewResolver(packaged bool, opts ...Option) *Resolver {
	r := &Resolver{
		Packaged: packaged,
		Platform: runtime.GOOS,
		Scheme:   DefaultScheme,
		fs:       afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SkipCount is the number of leading runtime-internal arguments
func (r *Resolver) SkipCount() int {
	if r.Packaged {
		return 1
	}
	return 2
}

func (r *Resolver) schemePrefix() string {
	return r.Scheme + "://"
}

// Resolve picks the last user argument of argv and validates it
func (r *Resolver) Resolve(argv []string) (Reference, bool) {
	return r.ResolveFrom(argv, "")
}

// ResolveFrom is Resolve for an argument vector forwarded by another
// process: a relative file candidate is taken relative to dir.
func (r *Resolver) ResolveFrom(argv []string, dir string) (Reference, bool) {
	skip := r.SkipCount()
	if len(argv) <= skip {
		return "", false
	}
	candidate := argv[len(argv)-1]

	if strings.HasPrefix(candidate, "--") {
		return "", false
	}
	if r.Platform == "darwin" && strings.HasPrefix(candidate, "-psn_") {
		return "", false
	}
	if candidate == automationPlaceholder {
		return "", false
	}

	if r.isRemote(candidate) {
		return r.normalizeURL(candidate)
	}
	if dir != "" && !filepath.IsAbs(candidate) {
		candidate = filepath.Join(dir, candidate)
	}
	if !r.isFile(candidate) {
		return "", false
	}
	return Reference(candidate), true
}

// Normalize validates an OS open-url payload. No filesystem check is made.
func (r *Resolver) Normalize(url string) (Reference, bool) {
	if url == "" || url == automationPlaceholder {
		return "", false
	}
	return r.normalizeURL(url)
}

func (r *Resolver) isRemote(candidate string) bool {
	return strings.HasPrefix(candidate, "http://") ||
		strings.HasPrefix(candidate, "https://") ||
		strings.HasPrefix(candidate, r.schemePrefix())
}

// normalizeURL drops one trailing slash (Windows appends one to protocol
// activations) from the payload after the scheme, and the custom scheme
// prefix itself. A scheme with no payload is rejected.
func (r *Resolver) normalizeURL(url string) (Reference, bool) {
	for _, prefix := range []string{r.schemePrefix(), "https://", "http://"} {
		rest, ok := strings.CutPrefix(url, prefix)
		if !ok {
			continue
		}
		rest = strings.TrimSuffix(rest, "/")
		if rest == "" {
			return "", false
		}
		if prefix == r.schemePrefix() {
			return Reference(rest), true
		}
		return Reference(prefix + rest), true
	}

	url = strings.TrimSuffix(url, "/")
	if url == "" {
		return "", false
	}
	return Reference(url), true
}

// isFile reports whether path names a regular file. Stat errors count as no.
func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
