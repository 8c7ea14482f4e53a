package models

// EnhanceRequest is the payload sent to the AI enhancement function.
type EnhanceRequest struct {
	BlueprintType   string         `json:"blueprintType"`
	CurrentData     map[string]any `json:"currentData"`
	FieldsToEnhance []string       `json:"fieldsToEnhance"`
	Context         EnhanceContext `json:"context"`
}

type EnhanceContext struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Bank        Bank     `json:"bank"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type EnhanceResponse struct {
	Success      bool           `json:"success"`
	EnhancedData map[string]any `json:"enhancedData"`
	Error        string         `json:"error,omitempty"`
}
