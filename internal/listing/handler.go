package listing

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brickfolio/listing-portal/listing-portal-backend/internal/auth"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings/:id/iro", h.startIRO)
	rg.GET("/listings/:id/iro", h.getIRO)
	rg.POST("/listings/:id/iro/commit", h.commit)
	rg.POST("/listings/:id/iro/refunds", h.withdrawRefunds)
	rg.POST("/listings/:id/iro/funds", h.withdrawFunds)
	rg.POST("/listings/:id/iro/tokens", h.withdrawTokens)
	rg.POST("/listings/:id/nft", h.registerNFT)
	rg.POST("/listings/:id/nft/claim", h.claimNFT)
	rg.POST("/listings/:id/buyouts", h.startBuyout)
	rg.GET("/listings/:id/buyouts/:round", h.getBuyout)
	rg.POST("/listings/:id/buyouts/:round/offer", h.offer)
	rg.POST("/listings/:id/buyouts/:round/counter", h.counterOffer)
	rg.POST("/listings/:id/buyouts/:round/counter/withdraw", h.withdrawCounterOffer)
	rg.POST("/listings/:id/buyouts/:round/surrender", h.surrenderTokens)
	rg.POST("/listings/:id/buyouts/:round/offer/withdraw", h.withdrawOffer)
	rg.POST("/listings/:id/buyouts/:round/bought", h.withdrawBoughtTokens)
}

// writeError maps domain sentinels to stable HTTP codes. The error string is
// the wire code clients match on.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNoCommit),
		errors.Is(err, ErrAllowanceLow),
		errors.Is(err, ErrTokenAllowanceLow),
		errors.Is(err, ErrFundingAllowanceLow):
		status = http.StatusBadRequest
	case errors.Is(err, ErrBadStatus), errors.Is(err, ErrWrongIroStage):
		status = http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusForbidden
	default:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) ids(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) round(c *gin.Context) (int, bool) {
	round, err := strconv.Atoi(c.Param("round"))
	if err != nil || round < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round index"})
		return 0, false
	}
	return round, true
}

type startIRORequest struct {
	Beneficiary string `json:"beneficiary" binding:"required"`
}

func (h *Handler) startIRO(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	var req startIRORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.StartIRO(c.Request.Context(), id, auth.Account(c), req.Beneficiary); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing_id": id, "status": "IRO"})
}

func (h *Handler) getIRO(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	l, err := h.service.resolver.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	iro := l.IRO()
	if iro == nil {
		writeError(c, ErrBadStatus)
		return
	}
	caller := auth.Account(c)
	c.JSON(http.StatusOK, gin.H{
		"id":           iro.ID(),
		"status":       iro.Status().String(),
		"goal":         iro.Goal(),
		"committed":    iro.Committed(),
		"committed_by": iro.CommittedBy(caller),
		"beneficiary":  iro.Beneficiary(),
		"started_at":   iro.StartedAt(),
	})
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *Handler) commit(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Commit(c.Request.Context(), id, auth.Account(c), req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "amount": req.Amount})
}

func (h *Handler) withdrawRefunds(c *gin.Context) {
	h.withdraw(c, func(ctx *gin.Context, id uint64) (uint64, error) {
		return h.service.WithdrawRefunds(ctx.Request.Context(), id, auth.Account(ctx))
	})
}

func (h *Handler) withdrawFunds(c *gin.Context) {
	h.withdraw(c, func(ctx *gin.Context, id uint64) (uint64, error) {
		return h.service.WithdrawFunds(ctx.Request.Context(), id)
	})
}

func (h *Handler) withdrawTokens(c *gin.Context) {
	h.withdraw(c, func(ctx *gin.Context, id uint64) (uint64, error) {
		return h.service.WithdrawTokens(ctx.Request.Context(), id, auth.Account(ctx))
	})
}

func (h *Handler) withdraw(c *gin.Context, op func(*gin.Context, uint64) (uint64, error)) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	amount, err := op(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "amount": amount})
}

type registerNFTRequest struct {
	TitleID uint64 `json:"title_id"`
}

func (h *Handler) registerNFT(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	var req registerNFTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RegisterNFT(c.Request.Context(), id, auth.Account(c), req.TitleID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "title_id": req.TitleID, "status": "LIVE"})
}

func (h *Handler) claimNFT(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	if err := h.service.ClaimNFT(c.Request.Context(), id, auth.Account(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id})
}

func (h *Handler) startBuyout(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, err := h.service.StartBuyout(c.Request.Context(), id, auth.Account(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing_id": id, "round": round})
}

func (h *Handler) getBuyout(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, ok := h.round(c)
	if !ok {
		return
	}
	l, err := h.service.resolver.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	b, err := l.Buyout(round)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	caller := auth.Account(c)
	c.JSON(http.StatusOK, gin.H{
		"id":                   b.ID(),
		"status":               b.Status().String(),
		"offerer":              b.Offerer(),
		"offered_units":        b.OfferedUnits(),
		"offered_funding":      b.OfferedFunding(),
		"counter_offer_target": b.CounterOfferTarget(),
		"counter_offer_amount": b.CounterOfferAmount(),
		"counter_offer_by":     b.CounterOfferBy(caller),
	})
}

type offerRequest struct {
	UnitAmount    uint64 `json:"unit_amount"`
	FundingAmount uint64 `json:"funding_amount"`
}

func (h *Handler) offer(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, ok := h.round(c)
	if !ok {
		return
	}
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Offer(c.Request.Context(), id, round, auth.Account(c), req.UnitAmount, req.FundingAmount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "round": round})
}

func (h *Handler) counterOffer(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, ok := h.round(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CounterOffer(c.Request.Context(), id, round, auth.Account(c), req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "round": round, "amount": req.Amount})
}

func (h *Handler) withdrawCounterOffer(c *gin.Context) {
	h.roundWithdraw(c, h.service.WithdrawCounterOffer)
}

func (h *Handler) withdrawBoughtTokens(c *gin.Context) {
	h.roundWithdraw(c, h.service.WithdrawBoughtTokens)
}

func (h *Handler) roundWithdraw(c *gin.Context, op func(ctx context.Context, listingID uint64, round int, caller string) (uint64, error)) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, ok := h.round(c)
	if !ok {
		return
	}
	amount, err := op(c.Request.Context(), id, round, auth.Account(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "round": round, "amount": amount})
}

type surrenderRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *Handler) surrenderTokens(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, ok := h.round(c)
	if !ok {
		return
	}
	var req surrenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payout, err := h.service.SurrenderTokens(c.Request.Context(), id, round, auth.Account(c), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "round": round, "payout": payout})
}

func (h *Handler) withdrawOffer(c *gin.Context) {
	id, ok := h.ids(c)
	if !ok {
		return
	}
	round, ok := h.round(c)
	if !ok {
		return
	}
	if err := h.service.WithdrawOffer(c.Request.Context(), id, round, auth.Account(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": id, "round": round})
}
