package domain

// DefaultModel is the baseline generation model used when none is specified.
const DefaultModel = "stable-diffusion-v1-5"

// GenerationSettings is the mutable global generation configuration.
// It is read by value at message-creation time so in-flight requests are
// unaffected by later changes.
type GenerationSettings struct {
	Model  string `json:"model"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Count  int    `json:"count"`
	Steps  int    `json:"steps"`
}

// DefaultSettings returns the settings a fresh session starts with.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		Model:  DefaultModel,
		Width:  512,
		Height: 512,
		Count:  4,
		Steps:  30,
	}
}
