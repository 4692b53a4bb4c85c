package a2a

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func testCard() AgentCard {
	return AgentCard{
		AgentId:     7,
		Domain:      "karma-hello.example.test",
		Name:        "karma-hello",
		Version:     "1.0.0",
		TrustModels: []string{"erc-8004"},
		Skills: []Skill{
			{SkillId: "get_logs", Name: "Get Logs", PriceAmount: "10000", PriceCurrency: "USDC", EndpointPath: "/skills/get_logs"},
		},
		PaymentMethods: []string{"eip155:84532"},
	}
}

func TestPublisherServesCacheControlHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewPublisher(testCard()).Register(engine)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-card", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "max-age=60", w.Header().Get("Cache-Control"))
}

func TestPublisherIsByteIdenticalAcrossConsecutiveFetches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewPublisher(testCard()).Register(engine)

	fetch := func() []byte {
		req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-card", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Body.Bytes()
	}

	first := fetch()
	second := fetch()
	require.Equal(t, first, second)
}

func TestPublisherPublishReplacesSnapshotAtomically(t *testing.T) {
	p := NewPublisher(testCard())
	require.Len(t, p.Current().Skills, 1)

	updated := testCard()
	updated.Skills = append(updated.Skills, Skill{SkillId: "get_metrics", EndpointPath: "/skills/get_metrics"})
	p.Publish(updated)

	require.Len(t, p.Current().Skills, 2)
}

func TestPublisherCardRoundTripsAsJSONMatchingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewPublisher(testCard()).Register(engine)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-card", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var card AgentCard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	require.Equal(t, "karma-hello.example.test", card.Domain)
	skill, ok := card.FindSkill("get_logs")
	require.True(t, ok)
	require.Equal(t, "10000", string(skill.PriceAmount))
}
