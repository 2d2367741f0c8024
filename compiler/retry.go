package compiler

import (
	"context"

	"github.com/vertsql/vertsql/sqlerr"
)

// executeWithRetries runs attempt up to c.Config.CreateAsSelectRetryCount+1
// times, retrying only on ReaderOutOfDate (spec §4.1 "Retry loop", §8
// "at most N+1 compilations"). attempt is responsible for its own
// re-lex/re-parse/re-optimise on each call since the pools it reads
// from were reset by the caller's Compile before the first attempt.
func (c *Compiler) executeWithRetries(ctx context.Context, label string, attempt func() (*CompiledQuery, error)) (*CompiledQuery, error) {
	n := c.Config.CreateAsSelectRetryCount
	if n < 0 {
		n = 0
	}
	var lastErr error
	for i := 0; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := attempt()
		if err == nil {
			return result, nil
		}
		if !sqlerr.IsReaderOutOfDate(err) {
			return nil, err
		}
		lastErr = err
		c.counters.retries.Add(1)
		logger.Debug("retrying after reader-out-of-date", "statement", label, "attempt", i+1)
	}
	return nil, sqlerr.Wrap(sqlerr.Internal, 0, lastErr, "%s: extremely volatile cursor after %d retries", label, n)
}
