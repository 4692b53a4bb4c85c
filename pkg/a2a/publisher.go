package a2a

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Publisher serves an agent's own AgentCard at /.well-known/agent-card. The
// card is held as a copy-on-write snapshot behind an atomic pointer: Publish
// installs a new snapshot, handlers read the current one without locking,
// matching the read-mostly/single-writer shape the data model calls for,
// grounded on the teacher's SupportedCache soft-cache in server.go.
type Publisher struct {
	current atomic.Pointer[AgentCard]
}

// NewPublisher creates a Publisher already serving card.
func NewPublisher(card AgentCard) *Publisher {
	p := &Publisher{}
	p.Publish(card)
	return p
}

// Publish atomically replaces the served card. Safe to call concurrently
// with reads; readers in flight keep seeing the previous snapshot.
func (p *Publisher) Publish(card AgentCard) {
	cloned := card
	cloned.Skills = append([]Skill(nil), card.Skills...)
	cloned.TrustModels = append([]string(nil), card.TrustModels...)
	cloned.PaymentMethods = append([]string(nil), card.PaymentMethods...)
	p.current.Store(&cloned)
}

// Current returns the currently published card.
func (p *Publisher) Current() AgentCard {
	return *p.current.Load()
}

// Register wires GET /.well-known/agent-card onto engine, advertising a
// 60-second cache window per the wire contract.
func (p *Publisher) Register(engine *gin.Engine) {
	engine.GET("/.well-known/agent-card", func(c *gin.Context) {
		c.Header("Cache-Control", "max-age=60")
		c.JSON(http.StatusOK, p.Current())
	})
}
