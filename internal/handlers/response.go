package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	xhttp "github.com/nimasrn/hire-gateway/pkg/http"
	"github.com/nimasrn/hire-gateway/pkg/logger"
)

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	xhttp.ErrorJSON(ctx, status, msg)
}

// writeDomainError maps the model error classes onto HTTP status codes.
// Anything unclassified is logged and reported without detail.
func writeDomainError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrMalformedInput):
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUpstream):
		writeError(ctx, xhttp.StatusBadGateway, err.Error())
	default:
		logger.Error("admin request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, "internal error")
	}
}

func pathID(ctx *xhttp.RequestCtx) (int64, bool) {
	v, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

// queryString is nil when the parameter is absent or blank.
func queryString(ctx *xhttp.RequestCtx, key string) *string {
	if v := strings.TrimSpace(query(ctx, key)); v != "" {
		return &v
	}
	return nil
}

// queryList splits a comma separated parameter into lower-cased parts.
func queryList(ctx *xhttp.RequestCtx, key string) []string {
	var out []string
	for _, part := range strings.Split(query(ctx, key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}

func queryInt64(ctx *xhttp.RequestCtx, key string) *int64 {
	if v := query(ctx, key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
