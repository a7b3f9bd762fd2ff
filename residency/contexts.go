//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package residency

import "github.com/pkg/errors"

// BufferContext is an opaque derived resource handle produced by a
// Consumer, e.g. a GPU-side vertex buffer object.
type BufferContext interface{}

// Consumer is a rendering backend that derives its own resource from a
// buffer's bytes. The registry side of the protocol lives on the Buffer;
// the queueing side lives on the Consumer, which typically works through
// queued requests once per scheduling tick.
//
// Consumer lifecycle calls are not synchronized here: like the residency
// design they serve, they follow the renderer's single-goroutine
// discipline.
type Consumer interface {
	// EnqueueBuffer schedules b to be prepared at the consumer's next
	// scheduling tick.
	EnqueueBuffer(b *Buffer)

	// IsBufferQueued reports whether b is enqueued and not yet prepared.
	IsBufferQueued(b *Buffer) bool

	// PrepareBufferNow derives the consumer's resource for b immediately,
	// returning nil if the consumer cannot prepare it right now.
	PrepareBufferNow(b *Buffer) BufferContext

	// DequeueBuffer cancels a queued preparation request for b, reporting
	// whether one was cancelled.
	DequeueBuffer(b *Buffer) bool

	// ReleaseBuffer tears down a context previously returned by
	// PrepareBufferNow. Implementations must call b.ClearPrepared as part
	// of the teardown.
	ReleaseBuffer(b *Buffer, ctx BufferContext)
}

// Prepare asks the consumer to prepare this buffer at the beginning of its
// next scheduling tick. Use this instead of PrepareNow to preload buffers
// from application code.
func (b *Buffer) Prepare(c Consumer) {
	c.EnqueueBuffer(b)
}

// IsPrepared reports whether a context exists for the consumer or one is
// already enqueued for preparation.
func (b *Buffer) IsPrepared(c Consumer) bool {
	if _, ok := b.contexts[c]; ok {
		return true
	}
	return c.IsBufferQueued(b)
}

// PrepareNow returns the existing context for the consumer, or derives one
// immediately and registers it if the consumer produced one.
func (b *Buffer) PrepareNow(c Consumer) BufferContext {
	if ctx, ok := b.contexts[c]; ok {
		return ctx
	}

	ctx := c.PrepareBufferNow(b)
	if ctx != nil {
		b.contexts[c] = ctx
	}
	return ctx
}

// Release frees the context on the given consumer if one exists, otherwise
// cancels a merely queued preparation request. It reports whether anything
// was released or cancelled.
func (b *Buffer) Release(c Consumer) bool {
	if ctx, ok := b.contexts[c]; ok {
		c.ReleaseBuffer(b, ctx)
		return true
	}

	// maybe it wasn't prepared yet, but it's about to be
	return c.DequeueBuffer(b)
}

// ReleaseAll frees the contexts on every consumer this buffer was prepared
// for, returning how many were freed. It iterates a copy of the registry,
// because every ReleaseBuffer re-enters ClearPrepared and mutates it. A
// registry that is not empty afterwards means a consumer broke the
// teardown protocol.
func (b *Buffer) ReleaseAll() (int, error) {
	snapshot := make(map[Consumer]BufferContext, len(b.contexts))
	for c, ctx := range b.contexts {
		snapshot[c] = ctx
	}

	for c, ctx := range snapshot {
		c.ReleaseBuffer(b, ctx)
	}

	if len(b.contexts) != 0 {
		return len(snapshot) - len(b.contexts), errors.Wrapf(ErrProtocol,
			"%d contexts still registered after releasing all", len(b.contexts))
	}
	return len(snapshot), nil
}

// ClearPrepared removes the consumer's entry without going through Release.
// It is called by the consumer side when it tears down the derived handle
// itself. Clearing an unregistered consumer indicates a protocol violation
// between buffer and consumer.
func (b *Buffer) ClearPrepared(c Consumer) error {
	if _, ok := b.contexts[c]; !ok {
		return errors.Wrap(ErrProtocol, "clearing a consumer that was never prepared")
	}

	delete(b.contexts, c)
	return nil
}
