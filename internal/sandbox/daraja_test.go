package sandbox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type callbackRecorder struct {
	mu       sync.Mutex
	received []map[string]interface{}
}

func (r *callbackRecorder) handler(w http.ResponseWriter, req *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(req.Body).Decode(&body)
	r.mu.Lock()
	r.received = append(r.received, body)
	n := len(r.received)
	r.mu.Unlock()

	desc := "Payment received successfully"
	if n > 1 {
		desc = "Duplicate transaction ignored"
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ResultCode":0,"ResultDesc":"` + desc + `"}`))
}

func setup(t *testing.T, duplicateBps int) (*gin.Engine, *callbackRecorder) {
	t.Helper()
	rec := &callbackRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(srv.Close)

	d := NewDaraja(Config{CallbackURL: srv.URL, DuplicateBps: duplicateBps, HTTPClient: srv.Client()})
	return d.Router(), rec
}

func token(t *testing.T, r *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/oauth/v1/generate?grant_type=client_credentials", nil)
	req.SetBasicAuth("key", "secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "3599", body.ExpiresIn)
	return body.AccessToken
}

func simulate(r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mpesa/c2b/v1/simulate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateToken_RequiresCredentials(t *testing.T) {
	r, _ := setup(t, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth/v1/generate?grant_type=client_credentials", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/oauth/v1/generate", nil)
	req.SetBasicAuth("key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulate_DeliversConfirmation(t *testing.T) {
	r, rec := setup(t, 0)
	tok := token(t, r)

	w := simulate(r, tok, `{"ShortCode":"600000","CommandID":"CustomerPayBillOnline","Amount":"500","Msisdn":"254708374149","BillRefNumber":"AB12CD34EF56"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.TransID, 10)
	require.Len(t, resp.Deliveries, 1)
	assert.Equal(t, 0, resp.Deliveries[0].ResultCode)

	require.Len(t, rec.received, 1)
	got := rec.received[0]
	assert.Equal(t, resp.TransID, got["TransID"])
	assert.Equal(t, "AB12CD34EF56", got["BillRefNumber"])
	assert.Equal(t, "254708374149", got["MSISDN"])
	assert.Equal(t, "500", got["TransAmount"])
}

func TestSimulate_AlwaysDuplicates(t *testing.T) {
	r, rec := setup(t, 10_000)

	w := simulate(r, token(t, r), `{"Amount":"100","Msisdn":"254708374149","BillRefNumber":"AB12CD34EF56"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Deliveries, 2)
	assert.Equal(t, "Duplicate transaction ignored", resp.Deliveries[1].ResultDesc)
	require.Len(t, rec.received, 2)
	assert.Equal(t, rec.received[0]["TransID"], rec.received[1]["TransID"])
}

func TestSimulate_Rejections(t *testing.T) {
	r, rec := setup(t, 0)
	tok := token(t, r)

	assert.Equal(t, http.StatusUnauthorized, simulate(r, "", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, simulate(r, "forged", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, simulate(r, tok, `{"Amount":"0","Msisdn":"2547"}`).Code)
	assert.Equal(t, http.StatusBadRequest, simulate(r, tok, `{"Amount":"10"}`).Code)
	assert.Empty(t, rec.received)
}

func TestSimulate_CallbackDown(t *testing.T) {
	d := NewDaraja(Config{CallbackURL: "http://127.0.0.1:1/callback"})
	r := d.Router()

	w := simulate(r, token(t, r), `{"Amount":"10","Msisdn":"254708374149","BillRefNumber":"X"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
