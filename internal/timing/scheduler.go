// Package timing holds the clock primitives used by the workout screens: a
// Scheduler abstraction over recurring callbacks and the count-up/count-down Timer.
package timing

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
)

// Scheduler runs recurring callbacks. Every returns a cancel function that is
// safe to call more than once and from inside the callback itself.
type Scheduler interface {
	Now() time.Time
	Every(interval time.Duration, fn func()) (cancel func())
}

// RealScheduler drives callbacks from wall-clock tickers, one goroutine per interval.
type RealScheduler struct {
	logger *log.Logger
}

var _ Scheduler = (*RealScheduler)(nil)

// NewRealScheduler creates a wall-clock scheduler
func NewRealScheduler(logger *log.Logger) *RealScheduler {
	if logger == nil {
		panic("RealScheduler: logger cannot be nil")
	}
	return &RealScheduler{logger: logger}
}

func (s *RealScheduler) Now() time.Time {
	return time.Now()
}

func (s *RealScheduler) Every(interval time.Duration, fn func()) func() {
	stop := make(chan struct{})
	var once sync.Once

	go_func_utils.SafeGo(s.logger, func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// a cancel racing with the tick wins
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	})

	return func() { once.Do(func() { close(stop) }) }
}
