// Package handellog provides the default handel.Logger implementation,
// backed by go.uber.org/zap's SugaredLogger. It wraps zap behind package
// handel's narrow Logger interface rather than passing *zap.Logger around
// directly.
package handellog

import "go.uber.org/zap"

// Zap adapts a *zap.SugaredLogger to handel.Logger.
type Zap struct {
	s *zap.SugaredLogger
}

// New wraps the given zap logger. If logger is nil, a production logger is
// built with zap.NewProduction.
func New(logger *zap.Logger) *Zap {
	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	}
	return &Zap{s: logger.Sugar()}
}

// Named returns a copy scoped under the given name, e.g. "handel.level".
func (z *Zap) Named(name string) *Zap {
	return &Zap{s: z.s.Named(name)}
}

func (z *Zap) Debugf(format string, args ...interface{}) { z.s.Debugf(format, args...) }
func (z *Zap) Infof(format string, args ...interface{})  { z.s.Infof(format, args...) }
func (z *Zap) Warnf(format string, args ...interface{})  { z.s.Warnf(format, args...) }
func (z *Zap) Errorf(format string, args ...interface{}) { z.s.Errorf(format, args...) }

// Sync flushes any buffered log entries.
func (z *Zap) Sync() error {
	return z.s.Sync()
}
