package engine

import "errors"

var (
	// ErrEngineNotStarted is returned by Query and Stop before Start.
	ErrEngineNotStarted = errors.New("engine not started")
	// ErrEngineStopped is returned by Start after Stop. Stopped is terminal.
	ErrEngineStopped = errors.New("engine stopped")
	// ErrBusTransactionFailed wraps a failed register read. Such cycles
	// leave the cache untouched and are retried at the next interval.
	ErrBusTransactionFailed = errors.New("bus transaction failed")
)
