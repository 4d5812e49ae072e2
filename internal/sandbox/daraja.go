package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const tokenTTL = time.Hour

// SimulateRequest mirrors the Daraja C2B simulate API.
type SimulateRequest struct {
	ShortCode     string          `json:"ShortCode"`
	CommandID     string          `json:"CommandID"`
	Amount        decimal.Decimal `json:"Amount"`
	Msisdn        string          `json:"Msisdn" binding:"required"`
	BillRefNumber string          `json:"BillRefNumber"`
}

// confirmation is the body posted to the callback URL.
type confirmation struct {
	TransactionType   string          `json:"TransactionType"`
	TransID           string          `json:"TransID"`
	TransTime         string          `json:"TransTime"`
	TransAmount       decimal.Decimal `json:"TransAmount"`
	BusinessShortCode string          `json:"BusinessShortCode"`
	BillRefNumber     string          `json:"BillRefNumber"`
	MSISDN            string          `json:"MSISDN"`
}

type CallbackResult struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

type SimulateResponse struct {
	ConversationID      string           `json:"ConversationID"`
	TransID             string           `json:"TransID"`
	ResponseDescription string           `json:"ResponseDescription"`
	Deliveries          []CallbackResult `json:"Deliveries"`
}

type Config struct {
	CallbackURL string
	// DuplicateBps is the chance, in basis points, that a confirmation is
	// delivered twice.
	DuplicateBps int
	HTTPClient   *http.Client
}

// Daraja imitates the parts of the M-Pesa API the gateway talks to: OAuth
// and C2B confirmations, including redelivery.
type Daraja struct {
	config Config
	mu     sync.Mutex
	rng    *rand.Rand
	tokens map[string]time.Time
}

func NewDaraja(config Config) *Daraja {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Daraja{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		tokens: make(map[string]time.Time),
	}
}

func (d *Daraja) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger)

	r.GET("/oauth/v1/generate", d.GenerateToken)
	r.POST("/mpesa/c2b/v1/simulate", d.authorized, d.Simulate)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	log.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("duration", time.Since(start)).
		Msg("request processed")
}

func (d *Daraja) GenerateToken(c *gin.Context) {
	if c.Query("grant_type") != "client_credentials" {
		c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "Invalid grant type passed"})
		return
	}
	key, secret, ok := c.Request.BasicAuth()
	if !ok || key == "" || secret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "Invalid Authentication passed"})
		return
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	d.mu.Lock()
	d.tokens[token] = time.Now().Add(tokenTTL)
	d.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_in":   fmt.Sprintf("%d", int(tokenTTL.Seconds())-1),
	})
}

func (d *Daraja) authorized(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errorMessage": "Invalid Access Token"})
		return
	}

	d.mu.Lock()
	exp, found := d.tokens[token]
	d.mu.Unlock()
	if !found || time.Now().After(exp) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errorMessage": "Invalid Access Token"})
		return
	}
	c.Next()
}

func (d *Daraja) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "Invalid request", "details": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "Invalid Amount"})
		return
	}

	now := time.Now()
	conf := confirmation{
		TransactionType:   "Pay Bill",
		TransID:           newTransID(),
		TransTime:         now.Format("20060102150405"),
		TransAmount:       req.Amount,
		BusinessShortCode: req.ShortCode,
		BillRefNumber:     req.BillRefNumber,
		MSISDN:            req.Msisdn,
	}

	deliveries := 1
	if d.duplicate() {
		deliveries = 2
	}

	resp := SimulateResponse{
		ConversationID:      uuid.NewString(),
		TransID:             conf.TransID,
		ResponseDescription: "Accept the service request successfully.",
	}
	for i := 0; i < deliveries; i++ {
		res, err := d.deliver(c.Request.Context(), conf)
		if err != nil {
			log.Error().Err(err).Str("trans_id", conf.TransID).Msg("callback delivery failed")
			c.JSON(http.StatusBadGateway, gin.H{"errorMessage": "callback delivery failed", "details": err.Error()})
			return
		}
		resp.Deliveries = append(resp.Deliveries, res)
	}

	log.Info().
		Str("trans_id", conf.TransID).
		Str("bill_ref", conf.BillRefNumber).
		Int("deliveries", deliveries).
		Msg("c2b confirmation delivered")
	c.JSON(http.StatusOK, resp)
}

func (d *Daraja) duplicate() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(10_000) < d.config.DuplicateBps
}

func (d *Daraja) deliver(ctx context.Context, conf confirmation) (CallbackResult, error) {
	var res CallbackResult

	body, err := json.Marshal(conf)
	if err != nil {
		return res, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return res, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("callback answered %d", httpResp.StatusCode)
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("decode callback response: %w", err)
	}
	return res, nil
}

// newTransID returns a ten character receipt number in the M-Pesa style.
func newTransID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return id[:10]
}
