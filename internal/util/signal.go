package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// MonitorSystemSignals calls callback for every interrupt or SIGTERM until
// ctx is done. Other signals can be given instead.
func MonitorSystemSignals(ctx context.Context, callback func(os.Signal), signals ...os.Signal) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	sigchnl := make(chan os.Signal, 1)
	signal.Notify(sigchnl, signals...)
	defer signal.Stop(sigchnl)

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sigchnl:
			callback(s)
		}
	}
}
