// Package tcplog wraps logrus the way the rest of the tree names and
// scopes its loggers: one *logrus.Entry per named component, carrying
// that name on every field it logs.
package tcplog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel adjusts the verbosity of every logger returned by New.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// New returns a logger scoped to name, e.g. the node's own name or a
// component such as "knownpeers".
func New(name string) *logrus.Entry {
	return base.WithField("node", name)
}
