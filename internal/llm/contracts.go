package llm

import (
	"context"
	"io"

	"github.com/joseph-ayodele/ticket-record/constants"
)

// CompletionRequest is a single-turn chat request.
type CompletionRequest struct {
	System string
	User   string
	// JSONObject asks the model for a bare JSON object response.
	JSONObject bool
}

// Completer is the chat model the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Transcriber turns an audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ExtractRequest describes one field-extraction call.
type ExtractRequest struct {
	OCRText string
	Allowed []string
	Mode    constants.ExtractMode
}
