package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergiovriv/bc-p2/internal/repository"
)

// RoundHandler serves the oracle's local round journal.
type RoundHandler struct {
	Repo     repository.RoundJournal
	BetHouse string
}

func (h *RoundHandler) Register(r *gin.Engine) {
	g := r.Group("/v1/rounds")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *RoundHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusServiceUnavailable, "journal unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	betHouse := stringQueryPtr(c, "bet_house")
	if betHouse == nil && h.BetHouse != "" {
		v := h.BetHouse
		betHouse = &v
	}
	asc := boolQueryPtr(c, "asc")
	if asc == nil {
		asc = boolPtr(false)
	}
	params := repository.ListRoundsParams{
		Limit:     limit,
		Offset:    offset,
		BetHouse:  betHouse,
		Status:    stringQueryPtr(c, "status"),
		SessionID: stringQueryPtr(c, "session_id"),
		OrderBy:   c.DefaultQuery("order_by", "round_id"),
		Asc:       asc,
	}
	items, err := h.Repo.ListRounds(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountRounds(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *RoundHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusServiceUnavailable, "journal unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid round id", nil)
		return
	}
	betHouse := c.DefaultQuery("bet_house", h.BetHouse)
	item, err := h.Repo.GetRound(c.Request.Context(), betHouse, id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "round not found", nil)
		return
	}
	bets, err := h.Repo.ListRoundBets(c.Request.Context(), betHouse, id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"round": item, "bets": bets}, nil)
}

func boolPtr(v bool) *bool { return &v }
