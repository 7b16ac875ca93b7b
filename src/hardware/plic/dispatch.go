package plic

import (
	"riscvrt/src/lib/trust"
)

// Handler services one external source.  It runs between claim and
// complete, so the source cannot be delivered to this context again
// until it returns.
type Handler func(src uint)

// Lookup finds the handler of a claimed source.
type Lookup func(src uint) (Handler, bool)

// Dispatch is the body of a machine external interrupt handler: it
// claims, calls the source's handler and completes until the context has
// nothing left to claim.  Sources without a handler are completed and
// reported on log.  It returns how many sources were claimed.
func Dispatch(c Context, lookup Lookup, log *trust.Logger) int {
	claimed := 0
	for {
		src, ok := c.claim.Claim()
		if !ok {
			return claimed
		}
		claimed++
		if h, found := lookup(src); found {
			h(src)
		} else if log != nil {
			log.Warnf("context %d: no handler for source %d", c.id, src)
		}
		c.claim.CompleteRaw(src)
	}
}

// MapLookup adapts a map keyed by raw source id.
func MapLookup(m map[uint]Handler) Lookup {
	return func(src uint) (Handler, bool) {
		h, ok := m[src]
		return h, ok
	}
}
