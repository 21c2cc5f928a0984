// Package delayedaction implements the small sum type activation paths
// return so a caller can choose to block on readiness or hand the list
// back to an RPC client.
package delayedaction

import (
	"context"
	"time"

	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/serviceid"
)

// Kind tags which variant a DelayedAction holds.
type Kind int

const (
	KindWaitUntilTimestamp Kind = iota
	KindWaitForServiceHeartbeat
)

// pollGrain is how often Wait polls for WaitUntilTimestamp, matching the
// 250ms grain specified for both the stats-refresh quiescence poll and
// delayed-action waits.
const pollGrain = 250 * time.Millisecond

// DelayedAction is a serializable token representing a wait condition.
// Exactly one of the Kind-specific fields is meaningful for a given Kind.
type DelayedAction struct {
	Kind Kind

	// Set when Kind == KindWaitUntilTimestamp.
	Until time.Time

	// Set when Kind == KindWaitForServiceHeartbeat.
	Target serviceid.ServiceId
}

// WaitUntilTimestamp builds a delayed action that resolves once wall
// clock time reaches ts.
func WaitUntilTimestamp(ts time.Time) DelayedAction {
	return DelayedAction{Kind: KindWaitUntilTimestamp, Until: ts}
}

// WaitForServiceHeartbeat builds a placeholder delayed action for a
// not-yet-implemented heartbeat wait on the named service.
func WaitForServiceHeartbeat(target serviceid.ServiceId) DelayedAction {
	return DelayedAction{Kind: KindWaitForServiceHeartbeat, Target: target}
}

// Wait blocks until the action resolves. WaitUntilTimestamp polls every
// 250ms; WaitForServiceHeartbeat is unimplemented and always fails.
func (a DelayedAction) Wait(ctx context.Context) error {
	switch a.Kind {
	case KindWaitUntilTimestamp:
		ticker := time.NewTicker(pollGrain)
		defer ticker.Stop()
		if !time.Now().Before(a.Until) {
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				if !now.Before(a.Until) {
					return nil
				}
			}
		}
	case KindWaitForServiceHeartbeat:
		return rorgerr.Unimplementedf("WaitForServiceHeartbeat(%s) is not implemented", a.Target)
	default:
		return rorgerr.Internalf("unknown delayed action kind %d", a.Kind)
	}
}

// WaitAll waits on every action in order, returning the first error.
func WaitAll(ctx context.Context, actions []DelayedAction) error {
	for _, a := range actions {
		if err := a.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
