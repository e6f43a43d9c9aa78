package window

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etcherng/internal/session"
	"etcherng/internal/settings"
	"etcherng/internal/testutils"
)

type fakeSurface struct {
	x, y          int
	width, height int
	shown         int
	restored      int
	display       [2]int
	hasDisplay    bool
}

func (f *fakeSurface) PrimaryDisplaySize() (int, int, bool) {
	return f.display[0], f.display[1], f.hasDisplay
}
func (f *fakeSurface) Position() (int, int)      { return f.x, f.y }
func (f *fakeSurface) SetPosition(x, y int)      { f.x, f.y = x, y }
func (f *fakeSurface) SetSize(width, height int) { f.width, f.height = width, height }
func (f *fakeSurface) Show()                     { f.shown++ }
func (f *fakeSurface) Restore()                  { f.restored++ }

type fakeStore struct {
	saved   *session.WindowSession
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeStore) Load(ctx context.Context) (*session.WindowSession, error) {
	return f.saved, f.loadErr
}

func (f *fakeStore) Save(ctx context.Context, ws session.WindowSession) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &ws
	return nil
}

type fakeSettings struct {
	fullscreen bool
	err        error
}

func (f fakeSettings) Get(ctx context.Context, name string) (bool, error) {
	if name != settings.Fullscreen {
		return false, errors.New("unexpected setting " + name)
	}
	return f.fullscreen, f.err
}

func TestGeometry_Defaults(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{}, testutils.NewRecordingLogger())

	g := c.Geometry(context.Background(), nil)
	assert.Equal(t, Geometry{Width: 800, Height: 480, MinWidth: 632, MinHeight: 400}, g)
}

func TestGeometry_FullscreenUsesPrimaryDisplay(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{fullscreen: true}, nil)
	display := &fakeSurface{display: [2]int{1920, 1080}, hasDisplay: true}

	g := c.Geometry(context.Background(), display)
	assert.True(t, g.Fullscreen)
	assert.Equal(t, 1920, g.Width)
	assert.Equal(t, 1080, g.Height)
}

func TestGeometry_FullscreenWithoutDisplayInfo(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{fullscreen: true}, nil)

	g := c.Geometry(context.Background(), &fakeSurface{})
	assert.Equal(t, 800, g.Width)
	assert.Equal(t, 480, g.Height)
}

func TestGeometry_SettingErrorFallsBack(t *testing.T) {
	logger := testutils.NewRecordingLogger()
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{fullscreen: true, err: errors.New("locked")}, logger)

	g := c.Geometry(context.Background(), &fakeSurface{display: [2]int{3840, 2160}, hasDisplay: true})
	assert.Equal(t, 800, g.Width)
	assert.True(t, logger.HasEntry("WARN", "Could not read fullscreen setting, using default size"))
}

func TestNewController_InvalidConfigUsesDefaults(t *testing.T) {
	c := NewController(Config{}, &fakeStore{}, fakeSettings{}, nil)
	assert.Equal(t, DefaultConfig(), c.cfg)
}

func TestLifecycle_RestoresAndCapturesPosition(t *testing.T) {
	store := &fakeStore{saved: &session.WindowSession{Position: [2]int{10, 20}}}
	c := NewController(DefaultConfig(), store, fakeSettings{}, testutils.NewRecordingLogger())
	ctx := context.Background()
	surface := &fakeSurface{x: 99, y: 99}

	require.Equal(t, Uninitialized, c.State())
	require.NoError(t, c.Created(ctx, surface))
	assert.Equal(t, Created, c.State())
	assert.Equal(t, 10, surface.x)
	assert.Equal(t, 20, surface.y)
	assert.Zero(t, surface.shown, "window stays hidden until ready")

	c.Ready(ctx)
	c.Ready(ctx)
	assert.Equal(t, Shown, c.State())
	assert.Equal(t, 1, surface.shown)

	surface.SetPosition(300, 400)
	c.Capture(ctx)
	assert.Equal(t, Closing, c.State())
	require.NotNil(t, store.saved)
	assert.Equal(t, [2]int{300, 400}, store.saved.Position)

	c.Destroyed()
	assert.Equal(t, Destroyed, c.State())
}

func TestCreated_WithoutSessionKeepsOSPlacement(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{}, nil)
	surface := &fakeSurface{x: 7, y: 8}

	require.NoError(t, c.Created(context.Background(), surface))
	assert.Equal(t, 7, surface.x)
	assert.Equal(t, 8, surface.y)
}

func TestCreated_LoadErrorIsNotFatal(t *testing.T) {
	logger := testutils.NewRecordingLogger()
	c := NewController(DefaultConfig(), &fakeStore{loadErr: errors.New("busy")}, fakeSettings{}, logger)

	require.NoError(t, c.Created(context.Background(), &fakeSurface{}))
	assert.True(t, logger.HasEntry("WARN", "Could not load window session"))
}

func TestCreated_AppliesFullscreenSize(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{fullscreen: true}, nil)
	surface := &fakeSurface{display: [2]int{2560, 1440}, hasDisplay: true}

	require.NoError(t, c.Created(context.Background(), surface))
	assert.Equal(t, 2560, surface.width)
	assert.Equal(t, 1440, surface.height)
}

func TestCreated_Twice(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{}, nil)
	ctx := context.Background()

	require.NoError(t, c.Created(ctx, &fakeSurface{}))
	assert.ErrorContains(t, c.Created(ctx, &fakeSurface{}), "window already created")
	assert.Error(t, c.Created(ctx, nil))
}

func TestCapture_WithoutSurfaceLogsError(t *testing.T) {
	logger := testutils.NewRecordingLogger()
	store := &fakeStore{}
	c := NewController(DefaultConfig(), store, fakeSettings{}, logger)

	assert.NotPanics(t, func() { c.Capture(context.Background()) })
	assert.Zero(t, store.saves)
	assert.True(t, logger.HasEntry("ERROR", "Cannot save window session, no live window"))
	assert.Equal(t, Uninitialized, c.State())
}

func TestCapture_AfterDestroyedLogsError(t *testing.T) {
	logger := testutils.NewRecordingLogger()
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{}, logger)
	ctx := context.Background()

	require.NoError(t, c.Created(ctx, &fakeSurface{}))
	c.Capture(ctx)
	c.Destroyed()
	c.Capture(ctx)

	assert.True(t, logger.HasEntry("ERROR", "Cannot save window session, no live window"))
}

func TestCapture_SaveErrorIsLogged(t *testing.T) {
	logger := testutils.NewRecordingLogger()
	c := NewController(DefaultConfig(), &fakeStore{saveErr: errors.New("read-only")}, fakeSettings{}, logger)
	ctx := context.Background()

	require.NoError(t, c.Created(ctx, &fakeSurface{}))
	c.Capture(ctx)
	assert.Equal(t, Closing, c.State())
	assert.NotEmpty(t, logger.Entries())
}

func TestDestroyed_WithoutCaptureWarns(t *testing.T) {
	logger := testutils.NewRecordingLogger()
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{}, logger)

	require.NoError(t, c.Created(context.Background(), &fakeSurface{}))
	c.Destroyed()
	assert.True(t, logger.HasEntry("WARN", "Window destroyed before its position was captured"))
}

func TestFocus(t *testing.T) {
	c := NewController(DefaultConfig(), &fakeStore{}, fakeSettings{}, nil)
	assert.False(t, c.Focus())

	surface := &fakeSurface{}
	require.NoError(t, c.Created(context.Background(), surface))
	assert.True(t, c.Focus())
	assert.Equal(t, 1, surface.restored)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closing", Closing.String())
	assert.Equal(t, "state(9)", State(9).String())
}
