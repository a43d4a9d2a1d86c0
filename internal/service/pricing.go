package service

import "strings"

// modelPrice is USD per 1K tokens.
type modelPrice struct {
	prompt     float64
	completion float64
}

// pricing covers the models the assistant is normally deployed with.
// Unknown models cost zero; token counts are still recorded.
var pricing = map[string]modelPrice{
	"gpt-4o":        {prompt: 0.0025, completion: 0.01},
	"gpt-4o-mini":   {prompt: 0.00015, completion: 0.0006},
	"gpt-4.1":       {prompt: 0.002, completion: 0.008},
	"gpt-4.1-mini":  {prompt: 0.0004, completion: 0.0016},
	"o3-mini":       {prompt: 0.0011, completion: 0.0044},
	"claude-sonnet": {prompt: 0.003, completion: 0.015},
	"claude-haiku":  {prompt: 0.0008, completion: 0.004},
}

// CostUSD computes the monetary cost of one model call. Provider prefixes
// ("openai/gpt-4o") and version suffixes are tolerated via prefix matching.
func CostUSD(model string, promptTokens, completionTokens int) float64 {
	name := model
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	price, ok := pricing[name]
	if !ok {
		for known, p := range pricing {
			if strings.HasPrefix(name, known) {
				price, ok = p, true
				break
			}
		}
	}
	if !ok {
		return 0
	}

	return float64(promptTokens)/1000*price.prompt +
		float64(completionTokens)/1000*price.completion
}
