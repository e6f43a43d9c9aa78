package source

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, packaged bool, goos string) (*Resolver, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/images/raspios.img", []byte("image"), 0o644))
	require.NoError(t, fs.MkdirAll("/images/folder.img", 0o755))
	return NewResolver(packaged, WithFs(fs), WithPlatform(goos)), fs
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		packaged bool
		goos     string
		argv     []string
		want     Reference
		wantOK   bool
	}{
		{name: "empty argv", packaged: true, argv: nil},
		{name: "only binary packaged", packaged: true, argv: []string{"etcher-ng"}},
		{name: "dev skips two", packaged: false, argv: []string{"electron", "."}},
		{name: "flags only", packaged: true, argv: []string{"etcher-ng", "--foo", "--bar"}},
		{name: "last is flag", packaged: true, argv: []string{"etcher-ng", "https://a/b.img", "--disable-gpu"}},
		{
			name: "http url", packaged: true,
			argv: []string{"etcher-ng", "http://x"}, want: "http://x", wantOK: true,
		},
		{
			name: "https url", packaged: true,
			argv: []string{"etcher-ng", "https://x"}, want: "https://x", wantOK: true,
		},
		{
			name: "custom scheme stripped", packaged: true,
			argv: []string{"etcher-ng", "etcher://x"}, want: "x", wantOK: true,
		},
		{
			name: "trailing slash dropped", packaged: true,
			argv: []string{"etcher-ng", "etcher://https://example.com/image.img/"},
			want: "https://example.com/image.img", wantOK: true,
		},
		{
			name: "only one trailing slash dropped", packaged: true,
			argv: []string{"etcher-ng", "https://x//"}, want: "https://x/", wantOK: true,
		},
		{name: "scheme without payload", packaged: true, argv: []string{"etcher-ng", "etcher://"}},
		{name: "scheme with only slash", packaged: true, argv: []string{"etcher-ng", "etcher:///"}},
		{name: "http without payload", packaged: true, argv: []string{"etcher-ng", "http://"}},
		{name: "https without payload", packaged: true, argv: []string{"etcher-ng", "https://"}},
		{name: "https with only slash", packaged: true, argv: []string{"etcher-ng", "https:///"}},
		{name: "automation placeholder", packaged: true, argv: []string{"etcher-ng", "data:,"}},
		{
			name: "regular file", packaged: true,
			argv: []string{"etcher-ng", "/images/raspios.img"}, want: "/images/raspios.img", wantOK: true,
		},
		{
			name: "dev regular file", packaged: false,
			argv: []string{"electron", ".", "/images/raspios.img"}, want: "/images/raspios.img", wantOK: true,
		},
		{name: "directory", packaged: true, argv: []string{"etcher-ng", "/images/folder.img"}},
		{name: "missing file", packaged: true, argv: []string{"etcher-ng", "/images/missing.img"}},
		{name: "psn on darwin", packaged: true, goos: "darwin", argv: []string{"Etcher", "-psn_0_12345"}},
		{name: "psn elsewhere is a path check", packaged: true, goos: "linux", argv: []string{"etcher-ng", "-psn_0_12345"}},
		{
			name: "last argument wins", packaged: true,
			argv: []string{"etcher-ng", "/images/missing.img", "https://x/y.zip"}, want: "https://x/y.zip", wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goos := tt.goos
			if goos == "" {
				goos = "linux"
			}
			r, _ := newTestResolver(t, tt.packaged, goos)

			got, ok := r.Resolve(tt.argv)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_PsnWithFileNamedLikeIt(t *testing.T) {
	r, fs := newTestResolver(t, true, "darwin")
	require.NoError(t, afero.WriteFile(fs, "-psn_0_1", []byte("x"), 0o644))

	_, ok := r.Resolve([]string{"Etcher", "-psn_0_1"})
	assert.False(t, ok, "launch artifacts are rejected before any file check")
}

func TestResolver_MissingFileIsIdempotent(t *testing.T) {
	r, _ := newTestResolver(t, true, "linux")
	argv := []string{"etcher-ng", "/nope/never.img"}

	for range 3 {
		ref, ok := r.Resolve(argv)
		assert.False(t, ok)
		assert.Empty(t, ref)
	}
}

func TestResolver_FileAppearsLater(t *testing.T) {
	r, fs := newTestResolver(t, true, "linux")
	argv := []string{"etcher-ng", "/images/new.img"}

	_, ok := r.Resolve(argv)
	require.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, "/images/new.img", nil, 0o644))
	ref, ok := r.Resolve(argv)
	require.True(t, ok)
	assert.Equal(t, Reference("/images/new.img"), ref)
}

func TestResolver_Normalize(t *testing.T) {
	r, _ := newTestResolver(t, true, "darwin")

	tests := []struct {
		in     string
		want   Reference
		wantOK bool
	}{
		{in: "etcher://https://example.com/image.img", want: "https://example.com/image.img", wantOK: true},
		{in: "etcher://x/", want: "x", wantOK: true},
		{in: "https://example.com/", want: "https://example.com", wantOK: true},
		{in: "etcher://"},
		{in: "etcher:///"},
		{in: "http://"},
		{in: "https://"},
		{in: "http://example.com/image.img", want: "http://example.com/image.img", wantOK: true},
		{in: "data:,"},
		{in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := r.Normalize(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_CustomScheme(t *testing.T) {
	r := NewResolver(true, WithFs(afero.NewMemMapFs()), WithScheme("flash://"))

	ref, ok := r.Resolve([]string{"bin", "flash://abc"})
	require.True(t, ok)
	assert.Equal(t, Reference("abc"), ref)

	_, ok = r.Resolve([]string{"bin", "etcher://abc"})
	assert.False(t, ok, "other schemes fall through to the file check")
}

func TestResolver_Defaults(t *testing.T) {
	r := NewResolver(false)
	assert.Equal(t, DefaultScheme, r.Scheme)
	assert.Equal(t, 2, r.SkipCount())
	assert.Equal(t, 1, NewResolver(true).SkipCount())
}

func TestResolver_ResolveFromWorkingDirectory(t *testing.T) {
	r, _ := newTestResolver(t, true, "linux")

	ref, ok := r.ResolveFrom([]string{"etcher-ng", "raspios.img"}, "/images")
	require.True(t, ok)
	assert.Equal(t, Reference("/images/raspios.img"), ref)

	ref, ok = r.ResolveFrom([]string{"etcher-ng", "/images/raspios.img"}, "/elsewhere")
	require.True(t, ok)
	assert.Equal(t, Reference("/images/raspios.img"), ref)

	ref, ok = r.ResolveFrom([]string{"etcher-ng", "etcher://x"}, "/images")
	require.True(t, ok)
	assert.Equal(t, Reference("x"), ref, "URLs are never joined with the directory")

	_, ok = r.ResolveFrom([]string{"etcher-ng", "raspios.img"}, "/tmp")
	assert.False(t, ok)
}
