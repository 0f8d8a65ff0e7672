package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brickfolio/listing-portal/listing-portal-backend/internal/auth"
)

// Handler exposes the in-memory ledgers over HTTP so clients can set up
// balances and allowances before calling escrow operations.
type Handler struct {
	store  *Store
	admin  AdminChecker
	logger *zap.Logger
}

// AdminChecker gates token creation and title minting.
type AdminChecker interface {
	IsAdmin(account string) bool
}

func NewHandler(store *Store, admin AdminChecker, logger *zap.Logger) *Handler {
	return &Handler{store: store, admin: admin, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tokens", h.createToken)
	rg.GET("/tokens/:symbol", h.getToken)
	rg.GET("/tokens/:symbol/balance/:account", h.balance)
	rg.GET("/tokens/:symbol/allowance", h.allowance)
	rg.POST("/tokens/:symbol/approve", h.approve)
	rg.POST("/tokens/:symbol/transfer", h.transfer)
	rg.POST("/titles", h.mintTitle)
	rg.GET("/titles/:id", h.titleOwner)
}

type createTokenRequest struct {
	Name   string `json:"name" binding:"required"`
	Symbol string `json:"symbol" binding:"required"`
	Supply uint64 `json:"supply" binding:"required"`
	Owner  string `json:"owner" binding:"required"`
}

func (h *Handler) createToken(c *gin.Context) {
	if !h.admin.IsAdmin(auth.Account(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "UNAUTHORIZED"})
		return
	}
	var req createTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.store.CreateToken(req.Name, req.Symbol, req.Supply, req.Owner)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("token created",
		zap.String("symbol", t.Symbol()),
		zap.Uint64("supply", t.TotalSupply()))
	c.JSON(http.StatusCreated, tokenBody(t))
}

func (h *Handler) token(c *gin.Context) (*Token, bool) {
	t, ok := h.store.Token(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		return nil, false
	}
	return t, true
}

func (h *Handler) getToken(c *gin.Context) {
	t, ok := h.token(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tokenBody(t))
}

func (h *Handler) balance(c *gin.Context) {
	t, ok := h.token(c)
	if !ok {
		return
	}
	account := c.Param("account")
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": t.BalanceOf(account)})
}

func (h *Handler) allowance(c *gin.Context) {
	t, ok := h.token(c)
	if !ok {
		return
	}
	owner := c.Query("owner")
	spender := c.Query("spender")
	c.JSON(http.StatusOK, gin.H{
		"owner":     owner,
		"spender":   spender,
		"allowance": t.Allowance(owner, spender),
	})
}

type approveRequest struct {
	Spender string `json:"spender" binding:"required"`
	Amount  uint64 `json:"amount"`
}

func (h *Handler) approve(c *gin.Context) {
	t, ok := h.token(c)
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t.Approve(auth.Account(c), req.Spender, req.Amount)
	c.JSON(http.StatusOK, gin.H{"spender": req.Spender, "amount": req.Amount})
}

type transferRequest struct {
	To     string `json:"to" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

func (h *Handler) transfer(c *gin.Context) {
	t, ok := h.token(c)
	if !ok {
		return
	}
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := t.Transfer(auth.Account(c), req.To, req.Amount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"to": req.To, "amount": req.Amount})
}

type mintTitleRequest struct {
	To       string `json:"to" binding:"required"`
	Metadata string `json:"metadata"`
}

func (h *Handler) mintTitle(c *gin.Context) {
	if !h.admin.IsAdmin(auth.Account(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "UNAUTHORIZED"})
		return
	}
	var req mintTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := h.store.Titles().SafeMint(req.To, req.Metadata)
	c.JSON(http.StatusCreated, gin.H{"title_id": id, "owner": req.To})
}

func (h *Handler) titleOwner(c *gin.Context) {
	id, ok := parseTitleID(c)
	if !ok {
		return
	}
	owner, err := h.store.Titles().OwnerOf(id)
	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, ErrUnknownTitle) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"title_id": id, "owner": owner})
}

func parseTitleID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return 0, false
	}
	return id, true
}

func tokenBody(t *Token) gin.H {
	return gin.H{
		"name":   t.Name(),
		"symbol": t.Symbol(),
		"supply": t.TotalSupply(),
	}
}
