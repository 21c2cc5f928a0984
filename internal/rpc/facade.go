// Package rpc exposes the registry over MCP: one tool per operation in
// the external interface, plus a small ambient HTTP mux for health and
// metrics. Every mutating tool call follows the same shape — take the
// registry lock, dispatch, persist, release the lock — so the on-disk
// state and the in-memory map are never observably out of sync (I6).
package rpc

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/cogrob/rorg/internal/registry"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/pkg/logging"
)

const subsystem = "rpc"

// maxConcurrentHandlers bounds how many tool calls may be mid-flight at
// once, independent of how many connections the transport accepts.
const maxConcurrentHandlers = 10

// Facade owns the registry and mediates every RPC against it under the
// single global mutex, translating errors through rorgerr.ToResult at
// exactly one point per handler.
type Facade struct {
	reg *registry.Registry
	sem *semaphore.Weighted
}

// NewFacade wraps reg for RPC dispatch.
func NewFacade(reg *registry.Registry) *Facade {
	return &Facade{reg: reg, sem: semaphore.NewWeighted(maxConcurrentHandlers)}
}

// withHandlerSlot bounds concurrent handler execution to
// maxConcurrentHandlers, queuing excess calls rather than rejecting
// them.
func (f *Facade) withHandlerSlot(ctx context.Context, fn func() error) error {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return rorgerr.Internalf("acquiring handler slot: %v", err)
	}
	defer f.sem.Release(1)
	return fn()
}

// mutate runs fn with the registry lock held, and — only if fn
// succeeds — persists the full registry state to disk before releasing
// the lock. A WriteToDisk failure is itself returned as the handler's
// error, since an RPC that reports success must have actually committed
// (I6).
func (f *Facade) mutate(ctx context.Context, fn func() error) error {
	return f.withHandlerSlot(ctx, func() error {
		f.reg.Lock()
		defer f.reg.Unlock()

		if err := fn(); err != nil {
			return err
		}
		if err := f.reg.WriteToDisk(); err != nil {
			logging.Error(subsystem, "WriteToDisk failed after successful mutation: %v", err)
			return err
		}
		return nil
	})
}

// query runs fn with the registry lock held, performing no persistence
// since it mutates nothing.
func (f *Facade) query(ctx context.Context, fn func() error) error {
	return f.withHandlerSlot(ctx, func() error {
		f.reg.Lock()
		defer f.reg.Unlock()
		return fn()
	})
}
