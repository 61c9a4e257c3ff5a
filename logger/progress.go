package logger

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Progress emits throttled progress lines for long passes. The first call
// always logs; later calls log at most once per interval.
type Progress struct {
	log       *zap.SugaredLogger
	sometimes rate.Sometimes
	pass      string
	total     int
}

// NewProgress returns a progress reporter for one normalization pass.
func NewProgress(log *zap.SugaredLogger, pass string, total int, interval time.Duration) *Progress {
	if log == nil {
		log = Logger
	}
	return &Progress{
		log:       log,
		sometimes: rate.Sometimes{First: 1, Interval: interval},
		pass:      pass,
		total:     total,
	}
}

// Update logs done/total unless throttled.
func (p *Progress) Update(done int) {
	p.sometimes.Do(func() {
		p.log.Infow("progress",
			FieldPass, p.pass,
			FieldCount, done,
			FieldTotalCount, p.total)
	})
}
