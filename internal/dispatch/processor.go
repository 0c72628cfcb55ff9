package dispatch

import "context"

// Processor is the external, opaque operation the queue supervises. It
// receives the item's payload and either returns a result value or an
// error carrying a human-readable message.
//
// A processor must tolerate being invoked more than once for the same
// payload: removal does not cancel an in-flight call, so a removed and
// re-enqueued item can in principle be processed twice.
type Processor interface {
	Process(ctx context.Context, payload any) (any, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, payload any) (any, error)

// Process invokes the function.
func (f ProcessorFunc) Process(ctx context.Context, payload any) (any, error) {
	return f(ctx, payload)
}
