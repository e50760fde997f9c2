package safego

import (
	"sync"

	"go.uber.org/zap"
)

// Go launches a goroutine with panic recovery.
// If the goroutine panics, the panic value is logged and the goroutine exits
// cleanly instead of crashing the process.
//
// Usage:
//
//	safego.Go(logger, "attachment-copy", func() {
//	    // work that might panic
//	})
func Go(logger *zap.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Goroutine panicked",
					zap.String("goroutine", name),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()
		fn()
	}()
}

// GoWait is Go with WaitGroup bookkeeping, for bounded worker fan-out
// where the caller must join before returning.
func GoWait(logger *zap.Logger, wg *sync.WaitGroup, name string, fn func()) {
	wg.Add(1)
	Go(logger, name, func() {
		defer wg.Done()
		fn()
	})
}
