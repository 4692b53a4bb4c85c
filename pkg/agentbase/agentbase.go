// Package agentbase ties the Key Vault Client, Ledger Client, A2A
// publisher/client, and x402 middleware into a runnable agent, composed —
// not inherited — per the spec's redesign note against a "BaseAgent +
// AgentCard server" multiple-inheritance shape.
package agentbase

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ultravioletadao/karmakadabra-core/pkg/a2a"
	"github.com/ultravioletadao/karmakadabra-core/pkg/ledgerclient"
	"github.com/ultravioletadao/karmakadabra-core/pkg/vault"
	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402mw"
)

// State is a stage of an agent's bootstrap state machine.
type State int

const (
	StateInit State = iota
	StateKeyLoaded
	StateAddressKnown
	StateIdentityConfirmed
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateKeyLoaded:
		return "KEY_LOADED"
	case StateAddressKnown:
		return "ADDRESS_KNOWN"
	case StateIdentityConfirmed:
		return "IDENTITY_CONFIRMED"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// PurchaseDeadline and ValidationDeadline are the default overall request
// deadlines named in the concurrency model: 30s for purchases, 60s for
// validation.
const (
	PurchaseDeadline   = 30 * time.Second
	ValidationDeadline = 60 * time.Second
)

// SkillHandler is a priced skill's implementation, registered against its
// Skill declaration and wrapped with x402 middleware when Register wires it
// onto an engine.
type SkillHandler struct {
	Skill   a2a.Skill
	Handler gin.HandlerFunc
}

// Config is everything Bootstrap needs to stand up an agent.
type Config struct {
	AgentName   string
	Domain      string
	CardName    string
	CardDesc    string
	CardVersion string
	TrustModels []string
	PaymentMethods []string

	HTTP         *http.Client
	Vault        vault.Backend
	Ledger       ledgerclient.LedgerClient
	Facilitator  x402mw.FacilitatorClient
	EIP712Domain evm.Domain
	PayTo        x402.Address
	Network      string

	Skills []SkillHandler
}

// Agent is a bootstrapped, running instance: its identity, its signer, its
// published card, and the dependencies it was built from.
type Agent struct {
	state  State
	cfg    Config
	key    *ecdsa.PrivateKey
	signer *evm.ClientSigner
	record x402.AgentRecord

	publisher *a2a.Publisher
	discovery *a2a.Client
	buyer     *x402mw.Client
}

// State returns the agent's current bootstrap state.
func (a *Agent) State() State { return a.state }

// AgentId is the identity registry's ID for this agent, valid once READY.
func (a *Agent) AgentId() x402.AgentId { return a.record.AgentId }

// Bootstrap runs the full INIT → READY sequence: resolve the private key,
// derive the address, confirm (or register) identity, and build the
// AgentCard and its publisher. Serving the card and wrapping each skill
// with priced x402 middleware happen later, in Register. A
// failure at any stage before READY is returned as-is — the caller is
// expected to treat it as fatal, per the spec's bootstrap state machine.
func Bootstrap(ctx context.Context, cfg Config) (*Agent, error) {
	a := &Agent{state: StateInit, cfg: cfg}

	keyVault := vault.New(cfg.Vault)
	rawKey, err := keyVault.GetPrivateKey(ctx, cfg.AgentName)
	if err != nil {
		return nil, err
	}
	key, err := evm.ParsePrivateKey(rawKey)
	if err != nil {
		return nil, err
	}
	a.key = key
	a.state = StateKeyLoaded

	signer, err := evm.NewClientSigner(key)
	if err != nil {
		return nil, err
	}
	a.signer = signer
	a.state = StateAddressKnown

	record, err := a.confirmIdentity(ctx)
	if err != nil {
		return nil, err
	}
	a.record = record
	a.state = StateIdentityConfirmed

	card := a.buildCard()
	a.publisher = a2a.NewPublisher(card)
	a.discovery = a2a.NewClient(cfg.HTTP)
	a.buyer = &x402mw.Client{HTTP: cfg.HTTP, Signer: signer, Key: key, Now: func() uint64 { return uint64(time.Now().Unix()) }}

	a.state = StateReady
	return a, nil
}

func (a *Agent) confirmIdentity(ctx context.Context) (x402.AgentRecord, error) {
	addr := a.signer.Address()
	record, exists, err := a.cfg.Ledger.ResolveByAddress(ctx, addr)
	if err != nil {
		return x402.AgentRecord{}, err
	}
	if exists {
		return record, nil
	}

	agentId, err := a.cfg.Ledger.RegisterAgent(ctx, a.cfg.Domain)
	if err != nil && !x402.IsKind(err, x402.KindAlreadyRegistered) {
		return x402.AgentRecord{}, err
	}
	if err == nil {
		return x402.AgentRecord{AgentId: agentId, Domain: a.cfg.Domain, Address: addr}, nil
	}

	record, exists, err = a.cfg.Ledger.ResolveByAddress(ctx, addr)
	if err != nil {
		return x402.AgentRecord{}, err
	}
	if !exists {
		return x402.AgentRecord{}, x402.New(x402.KindInternal, "already-registered address did not resolve on re-fetch")
	}
	return record, nil
}

func (a *Agent) buildCard() a2a.AgentCard {
	skills := make([]a2a.Skill, 0, len(a.cfg.Skills))
	for _, s := range a.cfg.Skills {
		skills = append(skills, s.Skill)
	}
	return a2a.AgentCard{
		AgentId:        a.record.AgentId,
		Domain:         a.cfg.Domain,
		Name:           a.cfg.CardName,
		Description:    a.cfg.CardDesc,
		Version:        a.cfg.CardVersion,
		Skills:         skills,
		TrustModels:    a.cfg.TrustModels,
		PaymentMethods: a.cfg.PaymentMethods,
	}
}

// Register wires the AgentCard publisher and every priced skill handler
// onto engine.
func (a *Agent) Register(engine *gin.Engine) {
	a.publisher.Register(engine)
	for _, s := range a.cfg.Skills {
		price := x402mw.PriceDeclaration{
			Amount:      s.Skill.PriceAmount,
			Asset:       a.cfg.EIP712Domain.VerifyingContract,
			Network:     a.cfg.Network,
			PayTo:       a.cfg.PayTo,
			MaxTimeoutS: uint64(PurchaseDeadline.Seconds()),
		}
		engine.POST(s.Skill.EndpointPath, x402mw.WithPayment(price, a.cfg.Facilitator), s.Handler)
	}
}

// Discover fetches and schema-validates the AgentCard published at domain.
func (a *Agent) Discover(ctx context.Context, domain string) (a2a.AgentCard, error) {
	return a.discovery.Discover(ctx, domain)
}

// Buy purchases skillId from card: it signs a payment authorization for
// amount, invokes the skill, and returns the seller's response.
func (a *Agent) Buy(ctx context.Context, card a2a.AgentCard, skillId string, params interface{}, amount x402.TokenAmount) (*a2a.InvokeResult, error) {
	skill, ok := card.FindSkill(skillId)
	if !ok {
		return nil, x402.New(x402.KindInvalidArgument, "agent card has no such skill")
	}

	sellerAddr, _, err := a.cfg.Ledger.ResolveByDomain(ctx, card.Domain)
	if err != nil {
		return nil, err
	}

	purchase, err := a.buyer.Buy(ctx, "https://"+card.Domain+skill.EndpointPath, a.cfg.EIP712Domain, sellerAddr.Address, amount, uint64(PurchaseDeadline.Seconds()), params)
	if err != nil {
		return nil, err
	}
	return &a2a.InvokeResult{Body: purchase.Body, StatusCode: purchase.StatusCode}, nil
}

// RateCounterparty delegates to the Ledger Client's reputation operations.
func (a *Agent) RateCounterparty(ctx context.Context, counterpartId x402.AgentId, rating uint8) (string, error) {
	return a.cfg.Ledger.SubmitRating(ctx, counterpartId, rating)
}
