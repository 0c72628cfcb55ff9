package extractor

import (
	"context"
	"fmt"

	"docket/internal/dispatch"
	"docket/internal/services"
)

// Processor adapts the client to the dispatch loop. Queue payloads are
// the absolute path of the file to extract.
func (c *Client) Processor() dispatch.ProcessorFunc {
	return func(ctx context.Context, payload any) (any, error) {
		path, ok := payload.(string)
		if !ok || path == "" {
			return nil, services.Wrap(services.ErrValidation, "extractor", "process", fmt.Sprintf("payload %T is not a file path", payload), nil)
		}
		return c.Extract(ctx, path)
	}
}
