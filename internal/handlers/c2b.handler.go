package handlers

import (
	"context"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	xhttp "github.com/nimasrn/hire-gateway/pkg/http"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/prom"
)

type Reconciler interface {
	Reconcile(ctx context.Context, n model.C2BNotification) model.ReconciliationResult
}

// C2BPathPrefixes cover both callback mounts. The generic timeout skips
// them since the callback bounds reconciliation itself.
var C2BPathPrefixes = []string{"/mpesa/c2b/", "/api/v1/mpesa/c2b/"}

type C2BHandler struct {
	svc     Reconciler
	timeout time.Duration
}

// NewC2BHandler bounds each reconciliation by timeout; zero leaves it
// unbounded.
func NewC2BHandler(svc Reconciler, timeout time.Duration) *C2BHandler {
	return &C2BHandler{
		svc:     svc,
		timeout: timeout,
	}
}

// RegisterC2BRoutes mounts the callback on every method; anything but POST
// is answered in-band so the payment network never sees a transport error.
func RegisterC2BRoutes(r *xhttp.Router, h *C2BHandler) {
	r.ANY("/mpesa/c2b/callback/", h.Callback)
	r.Group("/api/v1").ANY("/mpesa/c2b/callback", h.Callback)
}

type c2bResponse struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Callback always answers 200 with a ResultCode body, a panic or an
// expired deadline included.
func (h *C2BHandler) Callback(ctx *xhttp.RequestCtx) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("[c2b] panic recovered", "error", err, "path", string(ctx.Path()))
			h.reject(ctx, model.OutcomeInternalError)
		}
	}()

	if !ctx.IsPost() {
		h.reject(ctx, model.OutcomeInvalidMethod)
		return
	}

	var n model.C2BNotification
	if err := readJSON(ctx, &n); err != nil {
		h.reject(ctx, model.OutcomeMalformedInput)
		return
	}

	var rctx context.Context = ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	h.reply(ctx, h.svc.Reconcile(rctx, n))
}

// reject answers requests that never reach reconciliation.
func (h *C2BHandler) reject(ctx *xhttp.RequestCtx, o model.Outcome) {
	prom.RecordReconciliation(string(o), 0)
	h.reply(ctx, model.Rejected(o))
}

func (h *C2BHandler) reply(ctx *xhttp.RequestCtx, res model.ReconciliationResult) {
	writeJSON(ctx, xhttp.StatusOK, c2bResponse{
		ResultCode: res.Code(),
		ResultDesc: res.Description(),
	})
}
