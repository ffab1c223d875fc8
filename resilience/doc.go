// Package resilience retries operations against flaky collaborators with
// exponential backoff and jitter.
//
// The directory source wraps its dial and bind in RetryFunc, so a directory
// that is briefly unreachable at startup does not abort the run:
//
//	err := resilience.RetryFunc(ctx, cfg.Retry, func(ctx context.Context) error {
//	    return conn.Bind(bindDN, password)
//	})
//
// AppErrors marked as not retryable stop the loop immediately.
package resilience
