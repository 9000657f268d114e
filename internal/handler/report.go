package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sergiovriv/bc-p2/internal/cache"
	"github.com/sergiovriv/bc-p2/internal/contentstore"
	"github.com/sergiovriv/bc-p2/internal/report"
)

type PointerReader interface {
	ReportPointer(ctx context.Context, roundID uint64) (string, error)
}

type ContentFetcher interface {
	Fetch(ctx context.Context, cid string) ([]byte, error)
}

// ReportHandler resolves a round's report pointer on the ledger and returns the
// published document with the fields report readers look for.
type ReportHandler struct {
	Pointers PointerReader
	Content  ContentFetcher
	Cache    *cache.Content
	Logger   *zap.Logger
}

type reportResponse struct {
	RoundID uint64          `json:"round_id,string"`
	CID     string          `json:"cid"`
	Summary report.Summary  `json:"summary"`
	Report  json.RawMessage `json:"report"`
}

func (h *ReportHandler) Register(r *gin.Engine) {
	r.GET("/v1/rounds/:id/report", h.get)
}

func (h *ReportHandler) get(c *gin.Context) {
	if h.Pointers == nil || h.Content == nil {
		Error(c, http.StatusServiceUnavailable, "report lookup unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid round id", nil)
		return
	}
	ctx := c.Request.Context()
	cid, err := h.Pointers.ReportPointer(ctx, id)
	if err != nil {
		h.logger().Warn("report pointer read failed", zap.Uint64("round_id", id), zap.Error(err))
		Error(c, http.StatusBadGateway, "ledger read failed", nil)
		return
	}
	if cid == "" {
		Error(c, http.StatusNotFound, "no report recorded for round", nil)
		return
	}
	raw, err := h.Cache.Get(ctx, cid, h.Content.Fetch)
	if errors.Is(err, contentstore.ErrNotFound) {
		Error(c, http.StatusNotFound, "report content not found", map[string]any{"cid": cid})
		return
	}
	if err != nil {
		h.logger().Warn("report fetch failed", zap.String("cid", cid), zap.Error(err))
		Error(c, http.StatusBadGateway, "content fetch failed", map[string]any{"cid": cid})
		return
	}
	summary, err := report.Summarize(raw)
	if err != nil {
		Error(c, http.StatusBadGateway, "report is not a json object", map[string]any{"cid": cid})
		return
	}
	Ok(c, reportResponse{RoundID: id, CID: cid, Summary: summary, Report: json.RawMessage(raw)}, nil)
}

func (h *ReportHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
