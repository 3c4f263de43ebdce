package engine

// cont is the sync/async trampoline wrapper from spec §4.1: "Each
// continuation handed to a user-visible callback is wrapped in a small
// object with fields { synchronous: boolean, target: () -> }." While
// synchronous is true (the dispatch site is still on the stack, inside
// the call to the host callback), invoking the continuation only enqueues
// target; once the dispatch site hands control back by flipping
// synchronous to false and draining, a later invocation runs target
// immediately and drains. This is what bounds stack depth for arbitrarily
// long synchronous host callback chains (spec §9: "do not substitute
// native async primitives").
type cont struct {
	engine      *Engine
	synchronous bool
	target      func()
}

// wrap builds a one-shot-dispatch continuation around target, to be
// handed to a host callback. Call release() after the callback returns.
func (e *Engine) wrap(target func()) *cont {
	return &cont{engine: e, synchronous: true, target: target}
}

// invoke is what the host actually calls (as `advance` or via `select`).
func (c *cont) invoke() {
	if c.synchronous {
		c.engine.queue = append(c.engine.queue, c.target)
		return
	}
	target := c.target
	target()
	c.engine.drain()
}

// release flips the continuation to asynchronous mode and drains any
// target that was queued because the host called it synchronously. Call
// exactly once, immediately after the host callback invocation returns.
func (c *cont) release() {
	c.synchronous = false
	c.engine.drain()
}

func (e *Engine) drain() {
	if e.draining {
		return
	}
	e.draining = true
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]
		next()
	}
	e.draining = false
}

// finishTrigger builds the distinguished outermost continuation used as
// the finish signal for one run or transition (spec §4.1, "Finish
// trigger"). Firing it invokes the host finish callback exactly once.
func (e *Engine) finishTrigger() func() {
	fired := false
	c := e.wrap(func() {
		if fired {
			return
		}
		fired = true
		e.finished = true
		if e.Callbacks.Finish != nil {
			e.Callbacks.Finish(e, nil)
		}
	})
	return func() {
		c.invoke()
		c.release()
	}
}

// fail aborts the current step: it unwinds the scope stack and invokes
// the finish callback with an error indication (spec §7's propagation
// policy for RuntimeError).
func (e *Engine) fail(err error) {
	if e.finished {
		return
	}
	e.finished = true
	e.Stack = nil
	if e.Callbacks.Finish != nil {
		e.Callbacks.Finish(e, err)
	}
}
