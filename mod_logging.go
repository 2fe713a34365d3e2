package lumen

import (
	"github.com/gekko3d/lumen/logging"
)

// LoggerResource holds the engine logger.
type LoggerResource struct {
	logging.Logger
}

// LoggingModule installs a default logger as a resource. A non-nil Logger
// is installed as is.
type LoggingModule struct {
	Prefix string
	Debug  bool
	Logger logging.Logger
}

func (m LoggingModule) Install(e *Engine) {
	logger := m.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger(m.Prefix, m.Debug)
	}
	e.AddResources(&LoggerResource{Logger: logger})
}
