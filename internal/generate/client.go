package generate

import "context"

// Request carries one generation call's inputs. Ephemeral, per call.
type Request struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	TargetName  string  `json:"target_name"`
	Phase       string  `json:"phase"`
}

// Response is the artifact text returned to the executor.
type Response struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Fallback bool   `json:"fallback"`
}

// Client is the external generative text collaborator. Implementations may
// fail with transport or service errors; callers treat any error or empty
// text as a signal to switch to the deterministic fallback generator.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
	Close() error
}
