// Package audit implements asynchronous security-event dispatch.
//
// # Design
//
// Engine code emits [Event] values through a [Dispatcher], which forwards
// them to a caller-supplied [Sink] on a dedicated goroutine. Emission never
// blocks the authentication path when DropIfFull is set; otherwise it blocks
// until the buffer drains or the caller's context is cancelled.
//
// # Architecture boundaries
//
// This package owns the event model and delivery. Which events exist and
// when they fire is decided by the root package.
//
// # What this package must NOT do
//
//   - Coarsen or filter events. Internal logging keeps full specificity.
//   - Import credcore or any sibling package.
package audit
