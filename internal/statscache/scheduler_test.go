package statscache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyFlusher struct {
	calls atomic.Int32
}

func (f *flakyFlusher) Flush(context.Context) error {
	switch f.calls.Add(1) {
	case 1:
		panic("boom")
	case 2:
		return errors.New("db down")
	default:
		return nil
	}
}

// упавший прогон (паника или ошибка) не должен останавливать расписание
func TestSchedulerSurvivesFailingFlushes(t *testing.T) {
	fl := &flakyFlusher{}
	s := NewScheduler("test", 5*time.Millisecond, fl, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, fl.calls.Load(), int32(3), "тики продолжаются после паники и ошибки")
}
