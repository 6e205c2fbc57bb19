package types

// GenerateRequest represents a text-generation request payload.
type GenerateRequest struct {
	// Required prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	// Generated completion text.
	// example: Salt wind on the rocks...
	Text string `json:"text" example:"Salt wind on the rocks..."`
	// BPE token count of the prompt; 0 when accounting is disabled.
	// example: 9
	PromptTokens int `json:"prompt_tokens,omitempty" example:"9"`
	// Wall-clock generation time in milliseconds.
	// example: 1843
	DurationMS int64 `json:"duration_ms" example:"1843"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ModelResponse describes the model the daemon is serving, as resolved from
// configuration at startup.
type ModelResponse struct {
	// Device the model was placed on.
	// example: cuda
	DeviceType string `json:"device_type" example:"cuda"`
	// Loading strategy that produced the model.
	// example: gptq
	ModelType string `json:"model_type" example:"gptq"`
	// Repository identifier the weights were resolved from.
	// example: TheBloke/WizardLM-7B-uncensored-GPTQ
	ModelRepository string `json:"model_repository" example:"TheBloke/WizardLM-7B-uncensored-GPTQ"`
	// Safetensors basename used by the quantized loader, if any.
	// example: model
	ModelSafetensors string `json:"model_safetensors,omitempty" example:"model"`
}
