package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/apimorph/pmconv/internal/domain"
)

// logReporter implements domain.Reporter on top of logrus, keying
// every notification by filename (and fragment position where
// applicable).
type logReporter struct {
	log *logrus.Logger
}

// NewReporter creates the logrus-backed operator feedback channel.
func NewReporter(log *logrus.Logger) domain.Reporter {
	return &logReporter{log: log}
}

func (r *logReporter) Status(file, msg string) {
	r.log.WithField("file", file).Info(msg)
}

func (r *logReporter) Warning(file, msg string) {
	r.log.WithField("file", file).Warn(msg)
}

func (r *logReporter) Failure(file, msg string) {
	r.log.WithField("file", file).Error(msg)
}

func (r *logReporter) Fragment(file string, index int, msg string) {
	r.log.WithFields(logrus.Fields{"file": file, "fragment": index}).Warn(msg)
}
