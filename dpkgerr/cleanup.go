package dpkgerr

// handler is one entry in a CleanupStack: a function paired with the two
// masks from dpkg's push_cleanup, selecting whether it runs on a normal
// unwind and whether it runs on an error unwind.
type handler struct {
	fn       func()
	onNormal bool
	onError  bool
}

// CleanupStack is a LIFO stack of scoped-resource handlers, re-expressing
// dpkg's push_cleanup/pop_cleanup pair. Every scoped
// resource acquisition (open file, lock, temp file) pushes a handler;
// every exit path pops it, running it according to whether the unwind is
// normal or erroring.
type CleanupStack struct {
	stack []handler
}

// Push registers fn to run on unwind. onNormal/onError select which kind
// of unwind triggers it; both true means "always run".
func (c *CleanupStack) Push(onNormal, onError bool, fn func()) {
	c.stack = append(c.stack, handler{fn: fn, onNormal: onNormal, onError: onError})
}

// Pop removes and optionally runs the most recently pushed handler,
// honoring its mask for the kind of exit isError names (the caller
// already knows whether this is a normal or error exit).
func (c *CleanupStack) Pop(isError bool) {
	if len(c.stack) == 0 {
		return
	}
	h := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.run(h, isError)
}

// Unwind runs every remaining handler in LIFO order honoring its mask,
// then empties the stack. A handler that panics is caught so that a
// recursive failure inside cleanup cannot prevent the remaining handlers
// from running, matching dpkg's rule that a failing cleanup is skipped
// rather than allowed to abort the unwind.
func (c *CleanupStack) Unwind(err error) {
	isError := err != nil
	for len(c.stack) > 0 {
		h := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.run(h, isError)
	}
}

func (c *CleanupStack) run(h handler, isError bool) {
	if (isError && !h.onError) || (!isError && !h.onNormal) {
		return
	}
	defer func() {
		recover() // a failing cleanup must not block the remaining ones
	}()
	h.fn()
}

// Len reports how many handlers are currently registered.
func (c *CleanupStack) Len() int { return len(c.stack) }
