package service

import "context"

// TextGenerator is the text-generation collaborator capability. Implementations
// return raw JSON text for a system/user prompt pair and bound the call with
// their own timeout.
type TextGenerator interface {
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationStatus tags the outcome of one collaborator call.
type GenerationStatus string

// Generation outcomes. Failures degrade the consuming component; they never
// abort a pipeline run.
const (
	GenerationSuccess GenerationStatus = "success"
	GenerationFailed  GenerationStatus = "failed"
)

// GenerationResult is the tagged outcome of one generation call.
type GenerationResult struct {
	Status GenerationStatus
	Raw    string
	Reason string
}

// generate wraps a collaborator call into a tagged result. A nil generator is
// treated as an unavailable collaborator.
func generate(ctx context.Context, gen TextGenerator, systemPrompt, userPrompt string) GenerationResult {
	if gen == nil {
		return GenerationResult{Status: GenerationFailed, Reason: "text generator not configured"}
	}

	raw, err := gen.GenerateStructured(ctx, systemPrompt, userPrompt)
	if err != nil {
		return GenerationResult{Status: GenerationFailed, Reason: err.Error()}
	}

	return GenerationResult{Status: GenerationSuccess, Raw: raw}
}
