package goroutine

import (
	"runtime/debug"

	"github.com/nftprophet/goapi/base/log"
)

var logger = log.Log()

type PanicEvent struct {
	Panic interface{}
	Stack []byte
}

// RecoverableGo runs f on a new goroutine and turns panics into events on
// the returned channel instead of crashing the process. The channel is
// closed when f returns normally.
func RecoverableGo(f func()) chan *PanicEvent {
	panicChan := make(chan *PanicEvent, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				stack := debug.Stack()
				logger.WithFields(log.Fields{
					"err":   p,
					"stack": string(stack),
				}).Error("panic")
				panicChan <- &PanicEvent{p, stack}
			} else {
				close(panicChan)
			}
		}()

		f()
	}()

	return panicChan
}
