package mcpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// narrator is implemented by results that have a human-readable rendering.
type narrator interface {
	Narrative() string
}

// ResponseMetadata carries call timing.
type ResponseMetadata struct {
	Tool        string    `json:"tool"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	ElapsedMs   float64   `json:"elapsed_ms"`
}

// SuccessEnvelope wraps a tool result.
type SuccessEnvelope struct {
	Result   any              `json:"result"`
	Metadata ResponseMetadata `json:"metadata"`
}

// FormatSuccess renders result as a narrative text block followed by the
// JSON success envelope.
func FormatSuccess(tool string, result any, started, completed time.Time) (*mcp.CallToolResult, error) {
	envelope := SuccessEnvelope{
		Result: result,
		Metadata: ResponseMetadata{
			Tool:        tool,
			StartedAt:   started.UTC(),
			CompletedAt: completed.UTC(),
			ElapsedMs:   float64(completed.Sub(started).Microseconds()) / 1000,
		},
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, &domain.ProcessingError{Operation: "encode " + tool + " result", Err: err}
	}

	out := &mcp.CallToolResult{}
	if n, ok := result.(narrator); ok {
		if text := n.Narrative(); text != "" {
			out.Content = append(out.Content, mcp.NewTextContent(text))
		}
	}
	out.Content = append(out.Content, mcp.NewTextContent(string(raw)))
	return out, nil
}

// FormatError renders a classified error as an error tool result.
func FormatError(c ClassifiedError) *mcp.CallToolResult {
	raw, err := json.Marshal(c.Envelope())
	if err != nil {
		// minimal envelope with kind and message
		raw = []byte(fmt.Sprintf(`{"error":{"kind":%q,"message":%q}}`, c.Kind, c.Message))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("%s: %s", c.Kind, c.Message)),
			mcp.NewTextContent(string(raw)),
		},
		IsError: true,
	}
}
