package handlers

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	xhttp "github.com/nimasrn/hire-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type reconcileFunc func(ctx context.Context, n model.C2BNotification) model.ReconciliationResult

func (f reconcileFunc) Reconcile(ctx context.Context, n model.C2BNotification) model.ReconciliationResult {
	return f(ctx, n)
}

// waitForDeadline blocks until ctx ends, the way a database call does once
// its context expires.
func waitForDeadline(ctx context.Context, _ model.C2BNotification) model.ReconciliationResult {
	select {
	case <-ctx.Done():
		return model.Rejected(model.OutcomeInternalError)
	case <-time.After(5 * time.Second):
		return model.ReconciliationResult{Outcome: model.OutcomeCreated}
	}
}

// serveAPI runs the middleware chain cmd/api installs over an in-memory
// listener, with an extra admin route that panics.
func serveAPI(t *testing.T, svc Reconciler, requestTimeout, callbackTimeout time.Duration) *fasthttp.Client {
	t.Helper()
	s := xhttp.CreateServer()
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.TimeoutMiddleware(requestTimeout, C2BPathPrefixes...))
	s.Use(xhttp.RecoverMiddleware)

	RegisterC2BRoutes(s.Router, NewC2BHandler(svc, callbackTimeout))
	s.Router.GET("/api/v1/admin/broken", func(ctx *xhttp.RequestCtx) { panic("nil hire") })
	s.Build()

	ln := fasthttputil.NewInmemoryListener()
	t.Cleanup(func() { _ = ln.Close() })
	go func() { _ = s.Server.Serve(ln) }()
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func send(t *testing.T, c *fasthttp.Client, method, path string, body []byte) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://gateway.local" + path)
	req.SetBody(body)
	require.NoError(t, c.DoTimeout(req, resp, 5*time.Second))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func sendCallback(t *testing.T, c *fasthttp.Client, path string) c2bResponse {
	t.Helper()
	status, body := send(t, c, "POST", path, []byte(`{"TransID":"T1","MSISDN":"254700000000","TransAmount":"100","BillRefNumber":"AB12CD34EF56"}`))
	require.Equal(t, xhttp.StatusOK, status, string(body))
	var resp c2bResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	return resp
}

func TestAPIServer_PanicInRouteIsRecovered(t *testing.T) {
	c := serveAPI(t, reconcileFunc(func(context.Context, model.C2BNotification) model.ReconciliationResult {
		return model.ReconciliationResult{Outcome: model.OutcomeCreated}
	}), time.Second, time.Second)

	status, body := send(t, c, "GET", "/api/v1/admin/broken", nil)
	assert.Equal(t, xhttp.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, string(body))

	// the process is still serving
	resp := sendCallback(t, c, "/mpesa/c2b/callback/")
	assert.Equal(t, 0, resp.ResultCode)
}

func TestAPIServer_CallbackPanicIsAnInternalError(t *testing.T) {
	c := serveAPI(t, reconcileFunc(func(context.Context, model.C2BNotification) model.ReconciliationResult {
		panic("boom")
	}), time.Second, time.Second)

	for _, path := range []string{"/mpesa/c2b/callback/", "/api/v1/mpesa/c2b/callback"} {
		resp := sendCallback(t, c, path)
		assert.Equal(t, 1, resp.ResultCode, path)
		assert.Equal(t, "Internal server error", resp.ResultDesc, path)
	}
}

func TestAPIServer_CallbackIsNotCutByRequestTimeout(t *testing.T) {
	c := serveAPI(t, reconcileFunc(func(context.Context, model.C2BNotification) model.ReconciliationResult {
		time.Sleep(150 * time.Millisecond)
		return model.ReconciliationResult{Outcome: model.OutcomeCreated}
	}), 30*time.Millisecond, time.Second)

	resp := sendCallback(t, c, "/mpesa/c2b/callback/")
	assert.Equal(t, 0, resp.ResultCode)
	assert.Equal(t, "Payment received successfully", resp.ResultDesc)
}

func TestAPIServer_CallbackDeadline(t *testing.T) {
	c := serveAPI(t, reconcileFunc(waitForDeadline), 30*time.Millisecond, 80*time.Millisecond)

	start := time.Now()
	resp := sendCallback(t, c, "/api/v1/mpesa/c2b/callback")
	assert.Equal(t, 1, resp.ResultCode)
	assert.Equal(t, "Internal server error", resp.ResultDesc)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAPIServer_OtherRoutesKeepRequestTimeout(t *testing.T) {
	s := xhttp.CreateServer()
	s.Use(xhttp.TimeoutMiddleware(30*time.Millisecond, C2BPathPrefixes...))
	s.Use(xhttp.RecoverMiddleware)
	s.Router.GET("/api/v1/admin/slow", func(ctx *xhttp.RequestCtx) {
		time.Sleep(150 * time.Millisecond)
		ctx.SetStatusCode(xhttp.StatusOK)
	})
	s.Build()

	ln := fasthttputil.NewInmemoryListener()
	t.Cleanup(func() { _ = ln.Close() })
	go func() { _ = s.Server.Serve(ln) }()
	c := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}

	status, _ := send(t, c, "GET", "/api/v1/admin/slow", nil)
	assert.Equal(t, xhttp.StatusRequestTimeout, status)
}
