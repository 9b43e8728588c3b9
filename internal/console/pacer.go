package console

import "time"

// pacer spaces frames a fixed period apart.
type pacer struct {
	period   time.Duration
	deadline time.Time
}

func newPacer(period time.Duration) *pacer {
	return &pacer{period: period}
}

// next returns how long to wait before starting the next frame. If the
// console has fallen more than a frame behind it resynchronizes instead of
// running fast to catch up.
func (p *pacer) next(now time.Time) time.Duration {
	if p.deadline.IsZero() {
		p.deadline = now
	}

	p.deadline = p.deadline.Add(p.period)
	if wait := p.deadline.Sub(now); wait > -p.period {
		return wait
	}

	p.deadline = now
	return 0
}

func (p *pacer) reset() {
	p.deadline = time.Time{}
}
