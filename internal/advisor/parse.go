package advisor

import (
	"encoding/json"
	"strings"

	"TradeHelper/internal/model"
)

type rawReply struct {
	Recommendation *string  `json:"recommendation"`
	Confidence     *float64 `json:"confidence"`
	Indicators     []string `json:"indicators"`
	Reasoning      string   `json:"reasoning"`
}

// ParseReply decodes the first JSON object found in free-form model text.
// Anything unusable yields the fallback.
func ParseReply(text string, positionActive bool) model.Analysis {
	obj, ok := firstObject(text)
	if !ok {
		return fallback()
	}
	var raw rawReply
	if err := json.Unmarshal(obj, &raw); err != nil || raw.Recommendation == nil {
		return fallback()
	}

	action := model.Action(strings.ToUpper(strings.TrimSpace(*raw.Recommendation)))
	if !allowed(action, positionActive) {
		return fallback()
	}

	confidence := 0.0
	if raw.Confidence != nil {
		confidence = min(max(*raw.Confidence, 0), 100)
	}
	indicators := raw.Indicators
	if indicators == nil {
		indicators = []string{}
	}

	return model.Analysis{
		Recommendation: model.Recommendation{
			Action:     action,
			Confidence: confidence,
			Indicators: indicators,
			Reasoning:  raw.Reasoning,
		},
		Source: model.SourceModel,
	}
}

// firstObject returns the first brace that starts a well-formed JSON object.
// Braces in prose that do not parse are skipped; trailing text is ignored.
func firstObject(text string) (json.RawMessage, bool) {
	for i := 0; i < len(text); i++ {
		j := strings.IndexByte(text[i:], '{')
		if j < 0 {
			break
		}
		i += j

		var obj json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

func allowed(a model.Action, positionActive bool) bool {
	switch a {
	case model.ActionHold, model.ActionSell:
		return true
	case model.ActionBuy:
		return !positionActive
	}
	return false
}

func fallback() model.Analysis {
	return model.Analysis{Recommendation: model.FallbackRecommendation(), Source: model.SourceFallback}
}
