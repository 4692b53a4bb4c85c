package facilitator

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// RequestIDHeader carries a correlation ID through a /verify or /settle
// call, grounded on the teacher-adjacent yv-was-taken-stronghold
// middleware's request-ID pattern: use the caller's header if present,
// otherwise generate one, and always echo it back.
const RequestIDHeader = "X-Request-ID"

// requestID is gin middleware that assigns each request a correlation ID,
// for the facilitator's settlement logs to be joinable against an agent's
// own request trace.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Service exposes the Facilitator over HTTP using gin, the way the
// teacher's http/service.go wires its resource service into gin handlers.
type Service struct {
	f       *Facilitator
	chainID uint64
	log     *zap.Logger
}

// NewService builds a Service; Register attaches its four endpoints to a
// gin.Engine.
func NewService(f *Facilitator, chainID uint64, log *zap.Logger) *Service {
	return &Service{f: f, chainID: chainID, log: log}
}

// Register attaches the facilitator's routes to engine.
func (s *Service) Register(engine *gin.Engine) {
	engine.Use(requestID())
	engine.GET("/health", s.handleHealth)
	engine.GET("/supported", s.handleSupported)
	engine.POST("/verify", s.handleVerify)
	engine.POST("/settle", s.handleSettle)
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, x402.HealthResponse{Status: "ok", ChainID: s.chainID})
}

func (s *Service) handleSupported(c *gin.Context) {
	c.JSON(http.StatusOK, x402.SupportedResponse{Kinds: s.f.Supported()})
}

func (s *Service) handleVerify(c *gin.Context) {
	var req x402.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, x402.VerifyResponse{IsValid: false, Reason: "malformed request"})
		return
	}

	resp := s.f.Verify(c.Request.Context(), req.PaymentPayload, req.PaymentRequirements)
	if resp.Reason == "rpc-unavailable" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"reason": "rpc-unavailable"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleSettle(c *gin.Context) {
	var req x402.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, x402.SettleResponse{Success: false, Reason: "malformed request"})
		return
	}

	resp := s.f.Settle(c.Request.Context(), req.PaymentPayload, req.PaymentRequirements)
	if resp.Reason == "rpc-unavailable" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"reason": "rpc-unavailable"})
		return
	}
	if s.log != nil {
		s.log.Info("settlement processed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Bool("success", resp.Success),
			zap.String("transaction", resp.Transaction),
			zap.String("reason", resp.Reason),
		)
	}
	c.JSON(http.StatusOK, resp)
}
