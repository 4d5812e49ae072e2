package xhttp

import (
	"encoding/json"

	"github.com/fasthttp/router"
)

type Router = router.Router
type Group = router.Group

func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router whose 404 and 405 answers use the
// same JSON error body as the handlers. Trailing-slash redirects are on
// and OPTIONS is left to the routes.
func CreateDefaultRouter() *Router {
	r := NewRouter()
	r.RedirectFixedPath = true
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	ErrorJSON(ctx, StatusNotFound, "route not found")
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	ErrorJSON(ctx, StatusMethodNotAllowed, "method "+string(ctx.Method())+" not allowed")
}

// ErrorJSON writes {"error": msg} with the given status.
func ErrorJSON(ctx *RequestCtx, status int, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	ctx.Response.Header.SetContentType("application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}
