package logging

// WailsLoggerAdapter routes Wails runtime logs into our structured logger
type WailsLoggerAdapter struct {
	logger Logger
}

// NewWailsLoggerAdapter creates a new Wails logger adapter
func NewWailsLoggerAdapter(logger Logger) *WailsLoggerAdapter {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{logger: logger}
}

func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails")
}

// Fatal is logged as an error; Wails must not terminate the process behind our back
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "level", "fatal")
}
