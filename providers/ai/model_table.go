package ai

import "sort"

// ModelSpec describes a known model: which vendor serves it, the output token
// ceiling to request, and whether it accepts image input.
type ModelSpec struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Vendor          Vendor `json:"vendor"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	ImageInput      bool   `json:"image_input"`
}

var modelTable = map[string]ModelSpec{
	// OpenAI
	"gpt-3.5-turbo":          {Name: "GPT-3.5 Turbo", Vendor: VendorOpenAI, MaxOutputTokens: 4096},
	"gpt-4":                  {Name: "GPT-4", Vendor: VendorOpenAI, MaxOutputTokens: 4096, ImageInput: true},
	"gpt-4-turbo-2024-04-09": {Name: "GPT-4 Turbo", Vendor: VendorOpenAI, MaxOutputTokens: 4096, ImageInput: true},
	"gpt-4o":                 {Name: "GPT-4o", Vendor: VendorOpenAI, MaxOutputTokens: 16384, ImageInput: true},
	"gpt-4.5":                {Name: "GPT-4.5", Vendor: VendorOpenAI, MaxOutputTokens: 16384, ImageInput: true},
	"o1":                     {Name: "o1", Vendor: VendorOpenAI, MaxOutputTokens: 100000},
	"o1-mini":                {Name: "o1-mini", Vendor: VendorOpenAI, MaxOutputTokens: 65536},
	"o3-mini":                {Name: "o3-mini", Vendor: VendorOpenAI, MaxOutputTokens: 100000},

	// Anthropic
	"claude-3-haiku-20240307":    {Name: "Claude 3 Haiku", Vendor: VendorAnthropic, MaxOutputTokens: 4096, ImageInput: true},
	"claude-3-sonnet-20240229":   {Name: "Claude 3 Sonnet", Vendor: VendorAnthropic, MaxOutputTokens: 4096, ImageInput: true},
	"claude-3-opus-20240229":     {Name: "Claude 3 Opus", Vendor: VendorAnthropic, MaxOutputTokens: 4096, ImageInput: true},
	"claude-3-5-sonnet-20240620": {Name: "Claude 3.5 Sonnet", Vendor: VendorAnthropic, MaxOutputTokens: 8192, ImageInput: true},
	"claude-3-5-sonnet-20241022": {Name: "Claude 3.5 Sonnet v2", Vendor: VendorAnthropic, MaxOutputTokens: 8192, ImageInput: true},
	"claude-3-5-haiku-20241022":  {Name: "Claude 3.5 Haiku", Vendor: VendorAnthropic, MaxOutputTokens: 8192, ImageInput: true},
	"claude-3-7-sonnet-20250219": {Name: "Claude 3.7 Sonnet", Vendor: VendorAnthropic, MaxOutputTokens: 8192, ImageInput: true},

	// Mistral
	"mistral-7b":                {Name: "Mistral 7B", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mistral-small":             {Name: "Mistral Small", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mistral-medium-latest":     {Name: "Mistral Medium", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mistral-large-latest":      {Name: "Mistral Large", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mistral-large-2":           {Name: "Mistral Large 2", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"pixtral-large-latest":      {Name: "Pixtral Large", Vendor: VendorMistral, MaxOutputTokens: 8192, ImageInput: true},
	"pixtral-12b-2409":          {Name: "Pixtral 12B", Vendor: VendorMistral, MaxOutputTokens: 8192, ImageInput: true},
	"mistral-saba-latest":       {Name: "Mistral Saba", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"ministral-3b-latest":       {Name: "Ministral 3B", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"ministral-8b-latest":       {Name: "Ministral 8B", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"codestral":                 {Name: "Codestral", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mistral-nemo":              {Name: "Mistral Nemo", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"open-codestral-mamba":      {Name: "Codestral Mamba", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mathstral-7b-0.1":          {Name: "Mathstral 7B", Vendor: VendorMistral, MaxOutputTokens: 8192},
	"mistral-moderation-latest": {Name: "Mistral Moderation", Vendor: VendorMistral, MaxOutputTokens: 1024},

	// Llama API
	"llama3.3-70b":        {Name: "Llama 3.3 70B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3.2-90b-vision": {Name: "Llama 3.2 90B Vision", Vendor: VendorLlama, MaxOutputTokens: 4096, ImageInput: true},
	"llama3.2-11b-vision": {Name: "Llama 3.2 11B Vision", Vendor: VendorLlama, MaxOutputTokens: 4096, ImageInput: true},
	"llama3.2-3b":         {Name: "Llama 3.2 3B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3.2-1b":         {Name: "Llama 3.2 1B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3.1-405b":       {Name: "Llama 3.1 405B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3.1-70b":        {Name: "Llama 3.1 70B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3.1-8b":         {Name: "Llama 3.1 8B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3-70b":          {Name: "Llama 3 70B", Vendor: VendorLlama, MaxOutputTokens: 4096},
	"llama3-8b":           {Name: "Llama 3 8B", Vendor: VendorLlama, MaxOutputTokens: 4096},

	// Perplexity
	"mixtral-8x7b-instruct":            {Name: "Mixtral 8x7B Instruct", Vendor: VendorPerplexity, MaxOutputTokens: 4096},
	"mistral-7b-instruct":              {Name: "Mistral 7B Instruct", Vendor: VendorPerplexity, MaxOutputTokens: 4096},
	"codellama-70b-instruct":           {Name: "CodeLlama 70B Instruct", Vendor: VendorPerplexity, MaxOutputTokens: 4096},
	"llama-3.1-sonar-huge-128k-online": {Name: "Sonar Huge Online", Vendor: VendorPerplexity, MaxOutputTokens: 4096},
}

// LookupModel returns the table entry for a model id.
func LookupModel(id string) (ModelSpec, bool) {
	spec, ok := modelTable[id]
	if !ok {
		return ModelSpec{}, false
	}
	spec.ID = id
	return spec, true
}

// MaxOutputTokens returns the ceiling for a model, or 0 when the model is not
// in the table and the vendor default applies.
func MaxOutputTokens(id string) int {
	return modelTable[id].MaxOutputTokens
}

// Models returns every known model sorted by vendor then id.
func Models() []ModelSpec {
	models := make([]ModelSpec, 0, len(modelTable))
	for id, spec := range modelTable {
		spec.ID = id
		models = append(models, spec)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Vendor != models[j].Vendor {
			return models[i].Vendor < models[j].Vendor
		}
		return models[i].ID < models[j].ID
	})
	return models
}
