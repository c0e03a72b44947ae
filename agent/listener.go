// Package agent installs class transformations on a loader hierarchy.
// A builder accumulates the configuration immutably and materializes
// it into a transformer plugged into the instrumentation.
package agent

import (
	"github.com/tliron/commonlog"

	"github.com/Shredder121/byte-buddy/loader"
)

// Listener observes the outcome of each transformation attempt. The
// completion callback fires exactly once per attempt, whatever the
// outcome.
type Listener interface {
	// OnTransformation fires after a class was successfully rewritten.
	OnTransformation(name string, cl *loader.ClassLoader)

	// OnIgnored fires when a class was skipped, either explicitly
	// ignored or matched by no entry.
	OnIgnored(name string, cl *loader.ClassLoader)

	// OnError fires when transforming a class failed. The failure never
	// escapes to the loader; the class proceeds untransformed.
	OnError(name string, cl *loader.ClassLoader, err error)

	// OnComplete fires last for every attempt.
	OnComplete(name string, cl *loader.ClassLoader)
}

// NoOpListener ignores every event.
type NoOpListener struct{}

func (NoOpListener) OnTransformation(string, *loader.ClassLoader) {}
func (NoOpListener) OnIgnored(string, *loader.ClassLoader)        {}
func (NoOpListener) OnError(string, *loader.ClassLoader, error)   {}
func (NoOpListener) OnComplete(string, *loader.ClassLoader)       {}

// CompoundListener fans events out to several listeners in order.
type CompoundListener []Listener

func (c CompoundListener) OnTransformation(name string, cl *loader.ClassLoader) {
	for _, l := range c {
		l.OnTransformation(name, cl)
	}
}

func (c CompoundListener) OnIgnored(name string, cl *loader.ClassLoader) {
	for _, l := range c {
		l.OnIgnored(name, cl)
	}
}

func (c CompoundListener) OnError(name string, cl *loader.ClassLoader, err error) {
	for _, l := range c {
		l.OnError(name, cl, err)
	}
}

func (c CompoundListener) OnComplete(name string, cl *loader.ClassLoader) {
	for _, l := range c {
		l.OnComplete(name, cl)
	}
}

// LoggingListener reports events through commonlog.
type LoggingListener struct {
	log commonlog.Logger
}

// NewLoggingListener creates a listener logging under the given scope.
func NewLoggingListener(scope string) *LoggingListener {
	return &LoggingListener{log: commonlog.GetLogger(scope)}
}

func (l *LoggingListener) OnTransformation(name string, cl *loader.ClassLoader) {
	l.log.Infof("transformed %s in %s", name, loaderName(cl))
}

func (l *LoggingListener) OnIgnored(name string, cl *loader.ClassLoader) {
	l.log.Debugf("ignored %s in %s", name, loaderName(cl))
}

func (l *LoggingListener) OnError(name string, cl *loader.ClassLoader, err error) {
	l.log.Errorf("transforming %s in %s: %s", name, loaderName(cl), err.Error())
}

func (l *LoggingListener) OnComplete(name string, cl *loader.ClassLoader) {
	l.log.Debugf("completed %s in %s", name, loaderName(cl))
}

func loaderName(cl *loader.ClassLoader) string {
	if cl == nil {
		return "<nil>"
	}
	return cl.Name()
}
