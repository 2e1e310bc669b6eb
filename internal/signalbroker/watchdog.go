// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"

	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
)

// Graceful is called once, on the first signal received.
type Graceful func(sig os.Signal)

// Watch reads sigCh until it is closed or the context is done.
// The first signal of any type calls graceful (if not nil). The second signal
// of a type already seen unsubscribes and closes sigCh, then calls cancel.
func Watch(ctx context.Context, sigCh chan os.Signal, graceful Graceful, cancel context.CancelFunc) {
	var once sync.Once

	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "watchdog",
					"detail", "received second signal, destroying running jobs",
					"signal", sig.String())
				Stop(sigCh)
				close(sigCh)
				cancel()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Warn(ctx, "watchdog",
				"detail", "received signal, no new jobs will be started; send again to abort running jobs",
				"signal", sig.String())

			once.Do(func() {
				if graceful != nil {
					graceful(sig)
				}
			})
		}
	}
}
