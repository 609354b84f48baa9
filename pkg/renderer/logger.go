package renderer

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// GlogLogger routes renderer logging through glog, so the CLI gets
// leveled, flag-controlled output
type GlogLogger struct{}

func (gl *GlogLogger) Printf(format string, args ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintf(format, args...))
}

// NewGlogLogger creates a glog-backed logger
func NewGlogLogger() core.Logger {
	return &GlogLogger{}
}
