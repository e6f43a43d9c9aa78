package app

import (
	"context"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime is the part of the Wails runtime the shell drives. The Wails
// functions need the context handed to OnStartup, so tests substitute a fake.
type Runtime interface {
	EventsEmit(event string, data ...any)
	EventsOnce(event string, callback func(data ...any)) func()
	WindowGetPosition() (int, int)
	WindowSetPosition(x, y int)
	WindowSetSize(width, height int)
	WindowShow()
	WindowUnminimise()
	PrimaryScreenSize() (width, height int, ok bool)
	Quit()
}

type wailsRuntime struct {
	ctx context.Context
}

func newWailsRuntime(ctx context.Context) Runtime {
	return &wailsRuntime{ctx: ctx}
}

func (w *wailsRuntime) EventsEmit(event string, data ...any) {
	wailsruntime.EventsEmit(w.ctx, event, data...)
}

func (w *wailsRuntime) EventsOnce(event string, callback func(data ...any)) func() {
	return wailsruntime.EventsOnce(w.ctx, event, func(data ...interface{}) { callback(data...) })
}

func (w *wailsRuntime) WindowGetPosition() (int, int) {
	return wailsruntime.WindowGetPosition(w.ctx)
}

func (w *wailsRuntime) WindowSetPosition(x, y int) {
	wailsruntime.WindowSetPosition(w.ctx, x, y)
}

func (w *wailsRuntime) WindowSetSize(width, height int) {
	wailsruntime.WindowSetSize(w.ctx, width, height)
}

func (w *wailsRuntime) WindowShow() {
	wailsruntime.WindowShow(w.ctx)
}

func (w *wailsRuntime) WindowUnminimise() {
	wailsruntime.WindowUnminimise(w.ctx)
}

func (w *wailsRuntime) PrimaryScreenSize() (int, int, bool) {
	screens, err := wailsruntime.ScreenGetAll(w.ctx)
	if err != nil {
		return 0, 0, false
	}
	for _, s := range screens {
		if s.IsPrimary {
			return s.Size.Width, s.Size.Height, true
		}
	}
	return 0, 0, false
}

func (w *wailsRuntime) Quit() {
	wailsruntime.Quit(w.ctx)
}

// surface adapts the runtime to window.Surface
type surface struct {
	rt Runtime
}

func (s surface) PrimaryDisplaySize() (int, int, bool) { return s.rt.PrimaryScreenSize() }
func (s surface) Position() (int, int)                 { return s.rt.WindowGetPosition() }
func (s surface) SetPosition(x, y int)                 { s.rt.WindowSetPosition(x, y) }
func (s surface) SetSize(width, height int)            { s.rt.WindowSetSize(width, height) }
func (s surface) Show()                                { s.rt.WindowShow() }

func (s surface) Restore() {
	s.rt.WindowUnminimise()
	s.rt.WindowShow()
}

// broadcaster adapts the runtime to dispatch.Broadcaster. Wails has a single
// window, so emitting the event reaches every open window.
type broadcaster struct {
	app *App
}

func (b broadcaster) Broadcast(ctx context.Context, event string, payload ...any) {
	rt := b.app.runtime()
	if rt == nil {
		b.app.logger.Error("Cannot broadcast, runtime not started", "event", event)
		return
	}
	rt.EventsEmit(event, payload...)
}
