package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// agentCardSchema is the JSON Schema an AgentCard document must satisfy,
// validated the way the teacher validates discovery documents in
// extensions/bazaar/facilitator.go.
const agentCardSchema = `{
	"type": "object",
	"required": ["agentId", "domain", "name", "version", "skills", "trustModels", "paymentMethods"],
	"properties": {
		"agentId": {"type": "integer"},
		"domain": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"version": {"type": "string", "minLength": 1},
		"skills": {"type": "array"},
		"trustModels": {"type": "array", "items": {"type": "string"}},
		"paymentMethods": {"type": "array", "items": {"type": "string"}}
	}
}`

// Client discovers AgentCards and invokes skills over HTTP.
type Client struct {
	HTTP *http.Client
	// Scheme overrides the URL scheme used to reach a domain; defaults to
	// "https". Tests point this at "http" to talk to an httptest.Server.
	Scheme string
}

// NewClient builds a Client with http.DefaultClient if hc is nil.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{HTTP: hc}
}

func (c *Client) scheme() string {
	if c.Scheme == "" {
		return "https"
	}
	return c.Scheme
}

// Discover fetches and validates the AgentCard published at
// https://<domain>/.well-known/agent-card. Host resolution is
// case-insensitive: domain is lowercased before being placed in the URL.
func (c *Client) Discover(ctx context.Context, domain string) (AgentCard, error) {
	var card AgentCard

	url := c.scheme() + "://" + strings.ToLower(domain) + "/.well-known/agent-card"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return card, x402.Wrap(x402.KindInternal, "build discovery request", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return card, x402.Wrap(x402.KindNetworkUnavailable, "fetch agent card", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return card, x402.Wrap(x402.KindNetworkUnavailable, "read agent card body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return card, x402.Wrap(x402.ErrInvalidAgentCard.Kind, fmt.Sprintf("agent card fetch returned %d", resp.StatusCode), nil)
	}

	schemaLoader := gojsonschema.NewStringLoader(agentCardSchema)
	documentLoader := gojsonschema.NewBytesLoader(body)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return card, x402.Wrap(x402.ErrInvalidAgentCard.Kind, "agent card schema validation failed", err)
	}
	if !result.Valid() {
		return card, x402.Wrap(x402.ErrInvalidAgentCard.Kind, describeSchemaErrors(result), x402.ErrInvalidAgentCard)
	}

	if err := json.Unmarshal(body, &card); err != nil {
		return card, x402.Wrap(x402.KindDataMalformed, "decode agent card", err)
	}
	return card, nil
}

func describeSchemaErrors(result *gojsonschema.Result) string {
	var sb strings.Builder
	for i, e := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.String())
	}
	return sb.String()
}

// InvokeResult is what Invoke returns: the raw response body and its status
// code. Response headers, including any X-Payment-Response settlement
// receipt, are not carried.
type InvokeResult struct {
	Body       []byte
	StatusCode int
}

// Invoke calls skillId on card's base URL (https://<card.Domain>), POSTing
// params as JSON to the skill's endpointPath. If paymentHeader is non-empty
// it is attached as X-Payment. The response is returned as-is — including a
// 402, which the caller is expected to inspect and retry against.
func (c *Client) Invoke(ctx context.Context, card AgentCard, skillId string, params interface{}, paymentHeader string) (*InvokeResult, error) {
	skill, ok := card.FindSkill(skillId)
	if !ok {
		return nil, x402.New(x402.KindInvalidArgument, fmt.Sprintf("agent card has no skill %q", skillId))
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, x402.Wrap(x402.KindDataMalformed, "marshal skill params", err)
	}

	url := c.scheme() + "://" + strings.ToLower(card.Domain) + skill.EndpointPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "build invoke request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if paymentHeader != "" {
		req.Header.Set("X-Payment", paymentHeader)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, x402.Wrap(x402.KindNetworkUnavailable, "invoke skill", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, x402.Wrap(x402.KindNetworkUnavailable, "read skill response", err)
	}

	return &InvokeResult{Body: body, StatusCode: resp.StatusCode}, nil
}
