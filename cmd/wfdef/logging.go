package main

import (
	"context"
	"time"

	"github.com/kompox/wfdef/internal/logging"
)

// withCmdRunLogger emits a start log line for a command and returns a context
// whose logger carries the target, plus a cleanup function that emits the
// success or failure line.
//
// Usage:
//
//	ctx, cleanup := withCmdRunLogger(ctx, "check", target)
//	defer func() { cleanup(err) }()
//
// Log message format:
// - Start:   CMD:<operation>/S (with target in logger attributes)
// - Success: CMD:<operation>/EOK (with err, elapsed)
// - Failure: CMD:<operation>/EFAIL (with err, elapsed)
//
// All lines use INFO level. The runId comes from the context logger.
func withCmdRunLogger(ctx context.Context, operation, target string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("target", target)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "CMD:"+operation+"/S")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Info(ctx, "CMD:"+operation+"/EOK", "err", "", "elapsed", elapsed)
			return
		}
		errStr := err.Error()
		if len(errStr) > 64 {
			errStr = errStr[:64] + "..."
		}
		logger.Info(ctx, "CMD:"+operation+"/EFAIL", "err", errStr, "elapsed", elapsed)
	}

	return ctx, cleanup
}
