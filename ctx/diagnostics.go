package ctx

import (
	"context"

	"editstream/editor/nvim"
	"editstream/logger"
)

// diagnostics pulls the buffer's current LSP diagnostics.
type diagnostics struct {
	buffer *nvim.Buffer
}

func (d *diagnostics) Gather(_ context.Context, _ *SourceRequest) *Result {
	diags, err := d.buffer.Diagnostics()
	if err != nil {
		logger.Debug("diagnostics gather failed: %v", err)
		return nil
	}
	if len(diags) == 0 {
		return nil
	}
	return &Result{Diagnostics: diags}
}
