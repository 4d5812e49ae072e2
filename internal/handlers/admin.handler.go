package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	xhttp "github.com/nimasrn/hire-gateway/pkg/http"
	"github.com/shopspring/decimal"
)

type HireAdmin interface {
	CreateHire(ctx context.Context, req model.HireCreateRequest) (*model.Hire, error)
	UpdateTerms(ctx context.Context, id int64, u model.HireTermsUpdate) (*model.Hire, error)
	SetStatus(ctx context.Context, id int64, status string) (*model.Hire, error)
	GetHire(ctx context.Context, id int64) (*model.Hire, error)
	GetHireByReference(ctx context.Context, reference string) (*model.Hire, error)
	ListHires(ctx context.Context, f model.HireFilter) ([]*model.Hire, int64, error)
	ListPayments(ctx context.Context, hireID int64, limit, offset int) ([]*model.Payment, int64, error)
	SearchPayments(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, int64, error)
	DeleteHire(ctx context.Context, id int64) error
}

type RegistryAdmin interface {
	CreatePerson(ctx context.Context, req model.PersonCreateRequest) (*model.Person, error)
	GetPerson(ctx context.Context, id int64) (*model.Person, error)
	ListPersons(ctx context.Context, f model.PersonFilter) ([]*model.Person, int64, error)
	DeletePerson(ctx context.Context, id int64) error
	CreateAsset(ctx context.Context, req model.AssetCreateRequest) (*model.Asset, error)
	GetAsset(ctx context.Context, id int64) (*model.Asset, error)
	ListAssets(ctx context.Context, f model.AssetFilter) ([]*model.Asset, int64, error)
	DeleteAsset(ctx context.Context, id int64) error
}

type UnmatchedLister interface {
	List(ctx context.Context, limit, offset int) ([]*model.UnmatchedNotification, int64, error)
}

type AdminHandler struct {
	hires     HireAdmin
	registry  RegistryAdmin
	unmatched UnmatchedLister
}

func NewAdminHandler(hires HireAdmin, registry RegistryAdmin, unmatched UnmatchedLister) *AdminHandler {
	return &AdminHandler{
		hires:     hires,
		registry:  registry,
		unmatched: unmatched,
	}
}

func RegisterAdminRoutes(e *xhttp.Group, h *AdminHandler) {
	e.POST("/persons", h.CreatePerson)
	e.GET("/persons", h.ListPersons)
	e.GET("/persons/{id}", h.GetPerson)
	e.DELETE("/persons/{id}", h.DeletePerson)

	e.POST("/assets", h.CreateAsset)
	e.GET("/assets", h.ListAssets)
	e.GET("/assets/{id}", h.GetAsset)
	e.DELETE("/assets/{id}", h.DeleteAsset)

	e.POST("/hires", h.CreateHire)
	e.GET("/hires", h.ListHires)
	e.GET("/hires/{id}", h.GetHire)
	e.PATCH("/hires/{id}", h.UpdateHireTerms)
	e.DELETE("/hires/{id}", h.DeleteHire)
	e.PUT("/hires/{id}/status", h.SetHireStatus)
	e.GET("/hires/{id}/payments", h.ListPayments)

	e.GET("/payments", h.SearchPayments)

	e.GET("/unmatched", h.ListUnmatched)
}

/* --------------------------------- Persons ---------------------------------- */

func (h *AdminHandler) CreatePerson(ctx *xhttp.RequestCtx) {
	var req model.PersonCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.registry.CreatePerson(ctx, req)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *AdminHandler) GetPerson(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	p, err := h.registry.GetPerson(ctx, id)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *AdminHandler) ListPersons(ctx *xhttp.RequestCtx) {
	f := model.PersonFilter{
		Search: query(ctx, "search"),
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	items, total, err := h.registry.ListPersons(ctx, f)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Person]{Items: items, Total: total})
}

func (h *AdminHandler) DeletePerson(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.registry.DeletePerson(ctx, id); err != nil {
		writeDomainError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

/* --------------------------------- Assets ----------------------------------- */

func (h *AdminHandler) CreateAsset(ctx *xhttp.RequestCtx) {
	var req model.AssetCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	a, err := h.registry.CreateAsset(ctx, req)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, a)
}

func (h *AdminHandler) GetAsset(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	a, err := h.registry.GetAsset(ctx, id)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, a)
}

func (h *AdminHandler) ListAssets(ctx *xhttp.RequestCtx) {
	f := model.AssetFilter{
		Search: query(ctx, "search"),
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	if v := query(ctx, "status"); v != "" {
		st := model.AssetStatus(strings.ToLower(v))
		f.Status = &st
	}
	items, total, err := h.registry.ListAssets(ctx, f)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Asset]{Items: items, Total: total})
}

func (h *AdminHandler) DeleteAsset(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.registry.DeleteAsset(ctx, id); err != nil {
		writeDomainError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

/* ---------------------------------- Hires ----------------------------------- */

func (h *AdminHandler) CreateHire(ctx *xhttp.RequestCtx) {
	var req model.HireCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	hire, err := h.hires.CreateHire(ctx, req)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, hire)
}

func (h *AdminHandler) GetHire(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	hire, err := h.hires.GetHire(ctx, id)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, hire)
}

// ListHires answers ?reference= with a single-item list.
func (h *AdminHandler) ListHires(ctx *xhttp.RequestCtx) {
	if ref := query(ctx, "reference"); ref != "" {
		hire, err := h.hires.GetHireByReference(ctx, ref)
		if err != nil {
			writeDomainError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Hire]{Items: []*model.Hire{hire}, Total: 1})
		return
	}

	f := model.HireFilter{
		Search:   query(ctx, "search"),
		PersonID: queryInt64(ctx, "person_id"),
		AssetID:  queryInt64(ctx, "asset_id"),
		Limit:    queryInt(ctx, "limit"),
		Offset:   queryInt(ctx, "offset"),
		Desc:     strings.EqualFold(query(ctx, "order"), "desc"),
	}
	for _, part := range queryList(ctx, "status") {
		f.Statuses = append(f.Statuses, model.HireStatus(part))
	}
	if v := query(ctx, "due_before"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid due_before")
			return
		}
		f.DueBefore = &t
	}

	items, total, err := h.hires.ListHires(ctx, f)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Hire]{Items: items, Total: total})
}

type updateTermsRequest struct {
	DueAt     *time.Time       `json:"due_at"`
	DailyRate *decimal.Decimal `json:"daily_rate"`
}

func (h *AdminHandler) UpdateHireTerms(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req updateTermsRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	hire, err := h.hires.UpdateTerms(ctx, id, model.HireTermsUpdate{DueAt: req.DueAt, DailyRate: req.DailyRate})
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, hire)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetHireStatus(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	hire, err := h.hires.SetStatus(ctx, id, req.Status)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, hire)
}

func (h *AdminHandler) DeleteHire(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.hires.DeleteHire(ctx, id); err != nil {
		writeDomainError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *AdminHandler) ListPayments(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	items, total, err := h.hires.ListPayments(ctx, id, queryInt(ctx, "limit"), queryInt(ctx, "offset"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Payment]{Items: items, Total: total})
}

// SearchPayments filters on mpesa_receipt, phone, hire_reference, status
// (comma separated) and a free-text search.
func (h *AdminHandler) SearchPayments(ctx *xhttp.RequestCtx) {
	f := model.PaymentFilter{
		MpesaReceipt:  queryString(ctx, "mpesa_receipt"),
		Phone:         queryString(ctx, "phone"),
		HireReference: queryString(ctx, "hire_reference"),
		Search:        query(ctx, "search"),
		Limit:         queryInt(ctx, "limit"),
		Offset:        queryInt(ctx, "offset"),
	}
	for _, part := range queryList(ctx, "status") {
		f.Statuses = append(f.Statuses, model.PaymentStatus(part))
	}

	items, total, err := h.hires.SearchPayments(ctx, f)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Payment]{Items: items, Total: total})
}

func (h *AdminHandler) ListUnmatched(ctx *xhttp.RequestCtx) {
	items, total, err := h.unmatched.List(ctx, queryInt(ctx, "limit"), queryInt(ctx, "offset"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.UnmatchedNotification]{Items: items, Total: total})
}
