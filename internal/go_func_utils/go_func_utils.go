package go_func_utils

import (
	"log"
	"runtime/debug"
	"sync"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger with its stack
// before being re-raised.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer logPanic(logger)
		fn()
	}()
}

// SafeGoWG is SafeGo for goroutines tracked by wg. wg.Add is called before the
// goroutine starts and wg.Done when fn returns.
func SafeGoWG(logger *log.Logger, wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logPanic(logger)
		fn()
	}()
}

// Recover calls fn and converts a panic into a logged message instead of
// crashing. Used around fire-and-forget side effects such as audio cues.
func Recover(logger *log.Logger, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("%s: recovered from panic: %v", what, r)
		}
	}()
	fn()
}

func logPanic(logger *log.Logger) {
	if r := recover(); r != nil {
		logger.Printf("PANIC: %v\n%s", r, debug.Stack())
		panic(r)
	}
}
