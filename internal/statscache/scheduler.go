package statscache

import (
	"context"
	"log"
	"time"
)

type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler дёргает Flush с фиксированным периодом, независимо по каждому
// типу агрегата. Упавший прогон не валит цикл: следующий тик сработает.
type Scheduler struct {
	name   string
	period time.Duration
	fl     Flusher
	logger *log.Logger
}

func NewScheduler(name string, period time.Duration, fl Flusher, logger *log.Logger) *Scheduler {
	return &Scheduler{name: name, period: period, fl: fl, logger: logger}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Printf("%s: flushing every %s", s.name, s.period)
	t := time.NewTicker(s.period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("%s: stopped", s.name)
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("%s: flush panicked: %v", s.name, r)
		}
	}()
	if err := s.fl.Flush(ctx); err != nil {
		s.logger.Printf("%s: flush failed: %v", s.name, err)
	}
}
