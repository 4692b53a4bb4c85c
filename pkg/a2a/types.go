// Package a2a implements the A2A Protocol: AgentCard publication and
// discovery, skill selection, and skill invocation, grounded on the shape
// of aidenlippert-zerostate's libs/agentcard/agentcard.go card model and
// SAGE-X-project's sage-a2a-go protocol package, simplified to the fields
// this spec actually names.
package a2a

import x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"

// Skill is a named, priced operation an agent exposes.
type Skill struct {
	SkillId       string                 `json:"skillId"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	PriceAmount   x402.TokenAmount       `json:"priceAmount"`
	PriceCurrency string                 `json:"priceCurrency"`
	InputSchema   map[string]interface{} `json:"inputSchema,omitempty"`
	OutputSchema  map[string]interface{} `json:"outputSchema,omitempty"`
	EndpointPath  string                 `json:"endpointPath"`
}

// AgentCard is an agent's published identity and capability document.
type AgentCard struct {
	AgentId        x402.AgentId `json:"agentId"`
	Domain         string       `json:"domain"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Version        string       `json:"version"`
	Skills         []Skill      `json:"skills"`
	TrustModels    []string     `json:"trustModels"`
	PaymentMethods []string     `json:"paymentMethods"`
}

// FindSkill returns the skill with the given ID, if the card advertises
// one.
func (c AgentCard) FindSkill(skillId string) (Skill, bool) {
	for _, s := range c.Skills {
		if s.SkillId == skillId {
			return s, true
		}
	}
	return Skill{}, false
}

// SupportsTrustModel reports whether the card advertises model.
func (c AgentCard) SupportsTrustModel(model string) bool {
	for _, m := range c.TrustModels {
		if m == model {
			return true
		}
	}
	return false
}
