package push

import (
	"context"
	"time"
)

// Result is the outcome of one send attempt. Device tokens go stale
// independently, so callers get one Result per token rather than an
// aggregate boolean.
type Result struct {
	DeviceToken string
	Err         error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Failures filters results down to the failed sends.
func Failures(results []Result) []Result {
	var failures []Result
	for _, result := range results {
		if result.Failed() {
			failures = append(failures, result)
		}
	}
	return failures
}

// Dispatcher fans one notification out to a user's devices. Every token is
// attempted even when an earlier send fails; each send runs under its own
// bounded timeout.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
}

func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, deviceTokens []string) []Result {
	results := make([]Result, 0, len(deviceTokens))

	for _, deviceToken := range deviceTokens {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.sender.SendSilent(sendCtx, deviceToken)
		cancel()

		results = append(results, Result{DeviceToken: deviceToken, Err: err})
	}

	return results
}
