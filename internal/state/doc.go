// Package state implements the atomic state word of a resolution cell.
//
// The word is split into 2 sections, a phase section and a flags section,
// as follows, starting from the right:
// - The phase section takes 3 bits.
// - The flags section takes 1 bit (with more reserved).
//
// Description of the sections:
//
//   - The phase section describes where the cell is in its lifecycle.
//     = 6 mutually exclusive possible values, represented by 3 bits:
//
//   - Empty: the cell has no result yet, and its work (if any) has started.
//     It's the initial phase of all cells, except deferred ones.
//
//   - Delayed: the cell's work hasn't started yet. The only phase that can
//     absorb a cancel request without firing the cancel handlers, by
//     recording it in the deferredCancel flag instead.
//
//   - Cancelling: a cancel request has been delivered to the cell's cancel
//     handlers, but the cell is not resolved yet. The owner may still
//     fulfill or reject the cell from this phase.
//
//   - Resolving: a resolution is writing the cell's result. It's an
//     internal-only fence phase. Readers must treat it as pending, and
//     must not read the result while it's set.
//     Only the single writer that won the transition into Resolving may
//     move the cell out of it, so a failed transition out of Resolving
//     means the protocol itself was violated.
//
//   - Resolved: the cell holds its final value or error. Terminal.
//
//   - Cancelled: the cell resolved with no value and no error. Terminal.
//     Unlike Resolved, it's reached in a single transition, as there's no
//     payload to fence.
//     = All transitions are single compare-and-swap operations on the whole
//     word. A failed CAS means another goroutine advanced the phase, and
//     the caller must re-inspect the new value rather than retry blindly.
//     = The terminal phases, Resolved and Cancelled, accept no further
//     transitions.
//
//   - The flags section currently holds one flag:
//
//   - deferredCancel: a cancel request arrived while the phase was Delayed.
//     The request is replayed (and the flag cleared) when the cell is
//     promoted out of Delayed.
package state
