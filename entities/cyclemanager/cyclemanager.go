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

// Package cyclemanager runs a periodic maintenance callback on a fixed
// interval, with non-blocking start and context-aware stop.
package cyclemanager

import (
	"context"
	"sync"
	"time"
)

type (
	// ShouldBreakFunc indicates whether a stop was requested, so a long
	// running CycleFunc can break out of its work early.
	ShouldBreakFunc func() bool
	// CycleFunc performs one cycle of work. The return value indicates
	// whether any actual work was done.
	CycleFunc func(shouldBreak ShouldBreakFunc) bool
)

type CycleManager struct {
	sync.Mutex

	cycleFunc  CycleFunc
	interval   time.Duration
	running    bool
	stopSignal chan struct{}
	stopped    chan struct{}
}

func New(interval time.Duration, cycleFunc CycleFunc) *CycleManager {
	return &CycleManager{
		cycleFunc: cycleFunc,
		interval:  interval,
	}
}

// Start launches the cycle goroutine. Does nothing if already started.
func (c *CycleManager) Start() {
	c.Lock()
	defer c.Unlock()

	if c.running {
		return
	}

	c.stopSignal = make(chan struct{})
	c.stopped = make(chan struct{})
	stopSignal, stopped := c.stopSignal, c.stopped

	shouldBreak := func() bool {
		select {
		case <-stopSignal:
			return true
		default:
			return false
		}
	}

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopSignal:
				return
			case <-ticker.C:
				// stop has priority over a tick if both are ready
				select {
				case <-stopSignal:
					return
				default:
				}
				c.cycleFunc(shouldBreak)
			}
		}
	}()

	c.running = true
}

// Stop requests the cycle goroutine to exit and waits for it to do so, or
// for the context to expire, whichever comes first.
func (c *CycleManager) Stop(ctx context.Context) error {
	c.Lock()
	if !c.running {
		c.Unlock()
		return nil
	}
	c.running = false
	close(c.stopSignal)
	stopped := c.stopped
	c.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stopped:
		return nil
	}
}

func (c *CycleManager) Running() bool {
	c.Lock()
	defer c.Unlock()

	return c.running
}
