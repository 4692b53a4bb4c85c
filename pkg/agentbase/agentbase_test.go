package agentbase

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ultravioletadao/karmakadabra-core/pkg/a2a"
	"github.com/ultravioletadao/karmakadabra-core/pkg/ledgerclient"
	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
)

type fakeVaultBackend struct {
	secret string
}

func (f *fakeVaultBackend) GetSecret(ctx context.Context, name string) (string, error) {
	return f.secret, nil
}

type fakeLedger struct {
	registered        bool
	record            x402.AgentRecord
	alreadyExists     bool
	registerAttempted bool
}

func (f *fakeLedger) RegisterAgent(ctx context.Context, domain string) (x402.AgentId, error) {
	if f.alreadyExists {
		f.registerAttempted = true
		return 0, x402.Wrap(x402.KindAlreadyRegistered, "already registered", x402.ErrAlreadyRegistered)
	}
	f.registered = true
	f.record = x402.AgentRecord{AgentId: 42, Domain: domain}
	return 42, nil
}
func (f *fakeLedger) ResolveByAddress(ctx context.Context, addr x402.Address) (x402.AgentRecord, bool, error) {
	// An already-registered address is invisible to the first lookup and
	// resolves only after RegisterAgent has reported ErrAlreadyRegistered.
	if f.registered || (f.alreadyExists && f.registerAttempted) {
		rec := f.record
		rec.Address = addr
		return rec, true, nil
	}
	return x402.AgentRecord{}, false, nil
}
func (f *fakeLedger) ResolveByDomain(ctx context.Context, domain string) (x402.AgentRecord, bool, error) {
	return x402.AgentRecord{AgentId: 99, Domain: domain}, true, nil
}
func (f *fakeLedger) SubmitRating(ctx context.Context, counterpartId x402.AgentId, rating uint8) (string, error) {
	return "0xabc", nil
}
func (f *fakeLedger) GetRating(ctx context.Context, raterId, rateeId x402.AgentId) (uint8, bool, error) {
	return 0, false, nil
}
func (f *fakeLedger) RequestValidation(ctx context.Context, validatorId, sellerId x402.AgentId, dataHash [32]byte) error {
	return nil
}
func (f *fakeLedger) RespondValidation(ctx context.Context, dataHash [32]byte, score uint8) error {
	return nil
}
func (f *fakeLedger) GetValidationResponse(ctx context.Context, dataHash [32]byte) (uint8, bool, error) {
	return 0, false, nil
}
func (f *fakeLedger) GetValidationRequest(ctx context.Context, dataHash [32]byte) (ledgerclient.ValidationRequest, bool, error) {
	return ledgerclient.ValidationRequest{}, false, nil
}
func (f *fakeLedger) TokenBalance(ctx context.Context, addr x402.Address) (x402.TokenAmount, error) {
	return "0", nil
}

type fakeFacilitator struct{}

func (fakeFacilitator) Verify(ctx context.Context, req x402.VerifyRequest) (x402.VerifyResponse, error) {
	return x402.VerifyResponse{IsValid: true}, nil
}
func (fakeFacilitator) Settle(ctx context.Context, req x402.SettleRequest) (x402.SettleResponse, error) {
	return x402.SettleResponse{Success: true, Transaction: "0xdeadbeef"}, nil
}

func testDomain() evm.Domain {
	asset, _ := x402.ParseAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	return evm.Domain{Name: "USD Coin", Version: "2", ChainID: big.NewInt(84532), VerifyingContract: asset}
}

func testConfig(t *testing.T, ledger ledgerclient.LedgerClient) Config {
	t.Helper()
	return Config{
		AgentName:      "karma-hello",
		Domain:         "karma-hello.example.test",
		CardName:       "karma-hello",
		CardVersion:    "1.0.0",
		TrustModels:    []string{"erc-8004"},
		PaymentMethods: []string{"eip155:84532"},
		Vault:          &fakeVaultBackend{secret: "0x1111111111111111111111111111111111111111111111111111111111111111"},
		Ledger:         ledger,
		Facilitator:    fakeFacilitator{},
		EIP712Domain:   testDomain(),
		Network:        "eip155:84532",
	}
}

func TestBootstrapRegistersNewAgentAndReachesReady(t *testing.T) {
	ledger := &fakeLedger{}
	agent, err := Bootstrap(context.Background(), testConfig(t, ledger))
	require.NoError(t, err)
	require.Equal(t, StateReady, agent.State())
	require.Equal(t, x402.AgentId(42), agent.AgentId())
	require.True(t, ledger.registered)
}

func TestBootstrapTreatsAlreadyRegisteredAsSuccess(t *testing.T) {
	ledger := &fakeLedger{alreadyExists: true, record: x402.AgentRecord{AgentId: 7}}
	agent, err := Bootstrap(context.Background(), testConfig(t, ledger))
	require.NoError(t, err)
	require.Equal(t, StateReady, agent.State())
	require.Equal(t, x402.AgentId(7), agent.AgentId())
}

func TestBootstrapResolvesExistingRecordWithoutRegistering(t *testing.T) {
	ledger := &fakeLedger{registered: true, record: x402.AgentRecord{AgentId: 5, Domain: "karma-hello.example.test"}}
	agent, err := Bootstrap(context.Background(), testConfig(t, ledger))
	require.NoError(t, err)
	require.Equal(t, x402.AgentId(5), agent.AgentId())
}

func TestScenarioS5DiscoverThenBuy(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	domain := server.URL[len("https://"):]
	card := a2a.AgentCard{
		AgentId: 1,
		Domain:  domain,
		Name:    "karma-hello",
		Version: "1.0.0",
		Skills: []a2a.Skill{
			{SkillId: "get_logs", PriceAmount: "10000", EndpointPath: "/skills/get_logs"},
		},
		TrustModels:    []string{"erc-8004"},
		PaymentMethods: []string{"eip155:84532"},
	}
	mux.HandleFunc("/.well-known/agent-card", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(card)
	})
	requestsSeen := 0
	mux.HandleFunc("/skills/get_logs", func(w http.ResponseWriter, r *http.Request) {
		requestsSeen++
		if r.Header.Get("X-Payment") == "" {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(x402.PaymentRequiredResponse{
				X402Version: 1,
				Accepts: []x402.PaymentRequirement{
					{Scheme: "exact", Network: "eip155:84532", Asset: testDomain().VerifyingContract, MaxAmount: "10000"},
				},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"logs": "ok"})
	})

	ledger := &fakeLedger{}
	cfg := testConfig(t, ledger)
	cfg.HTTP = server.Client()
	agent, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)

	discovered, err := agent.Discover(context.Background(), domain)
	require.NoError(t, err)
	require.Equal(t, "karma-hello", discovered.Name)

	skill, ok := discovered.FindSkill("get_logs")
	require.True(t, ok)
	require.Equal(t, x402.TokenAmount("10000"), skill.PriceAmount)

	result, err := agent.Buy(context.Background(), discovered, "get_logs", map[string]string{}, "10000")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Equal(t, 1, requestsSeen)
}
