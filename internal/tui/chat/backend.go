package chat

import (
	"context"

	"github.com/samsaffron/term-chat/internal/llm"
)

// Optional capabilities a backend client may carry beyond llm.Client.
// The chat model feature-detects these with type assertions; backends
// without them simply don't get the corresponding commands.

// ModelSwitcher is implemented by clients whose model can change mid-session.
type ModelSwitcher interface {
	SetModel(name string)
}

// ModelLister is implemented by clients that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ModelChecker is implemented by clients that can verify their configured
// model is actually available. The result is advisory only.
type ModelChecker interface {
	CheckModel(ctx context.Context) *llm.ModelWarning
}
