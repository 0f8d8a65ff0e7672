package directory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brickfolio/listing-portal/listing-portal-backend/internal/auth"
	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// RoleStore is the capability table the role endpoints administer.
type RoleStore interface {
	IsAdmin(account string) bool
	Grant(listingID uint64, account, capability string)
	Revoke(listingID uint64, account, capability string)
}

type Handler struct {
	service Service
	roles   RoleStore
	logger  *zap.Logger
}

func NewHandler(service Service, roles RoleStore, logger *zap.Logger) *Handler {
	return &Handler{service: service, roles: roles, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings", h.createListing)
	rg.GET("/listings", h.listListings)
	rg.GET("/listings/count", h.countListings)
	rg.GET("/listings/:id", h.getListing)
	rg.POST("/listings/:id/roles", h.grantRole)
	rg.DELETE("/listings/:id/roles", h.revokeRole)
}

func (h *Handler) createListing(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.service.NewListing(c.Request.Context(), auth.Account(c), req)
	if err != nil {
		if err == listing.ErrUnauthorized {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, listingSummary(l))
}

func (h *Handler) listListings(c *gin.Context) {
	listings := h.service.List()
	out := make([]gin.H, 0, len(listings))
	for _, l := range listings {
		out = append(out, listingSummary(l))
	}
	c.JSON(http.StatusOK, gin.H{"listings": out})
}

func (h *Handler) countListings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.service.NumListings()})
}

func (h *Handler) getListing(c *gin.Context) {
	l, ok := h.resolve(c)
	if !ok {
		return
	}
	body := listingSummary(l)
	if iro := l.IRO(); iro != nil {
		body["iro"] = gin.H{
			"id":          iro.ID(),
			"status":      iro.Status().String(),
			"goal":        iro.Goal(),
			"committed":   iro.Committed(),
			"beneficiary": iro.Beneficiary(),
			"started_at":  iro.StartedAt(),
		}
	}
	if titleID, held := l.TitleAsset(); held {
		body["title_id"] = titleID
	}
	c.JSON(http.StatusOK, body)
}

type roleRequest struct {
	Account    string `json:"account" binding:"required"`
	Capability string `json:"capability" binding:"required"`
}

func (h *Handler) grantRole(c *gin.Context) {
	h.changeRole(c, h.roles.Grant)
}

func (h *Handler) revokeRole(c *gin.Context) {
	h.changeRole(c, h.roles.Revoke)
}

func (h *Handler) changeRole(c *gin.Context, apply func(uint64, string, string)) {
	l, ok := h.resolve(c)
	if !ok {
		return
	}
	if !h.roles.IsAdmin(auth.Account(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": listing.ErrUnauthorized.Error()})
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	apply(l.ID(), req.Account, req.Capability)
	c.JSON(http.StatusOK, gin.H{"listing_id": l.ID(), "account": req.Account, "capability": req.Capability})
}

func (h *Handler) resolve(c *gin.Context) (*listing.Listing, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return nil, false
	}
	l, err := h.service.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return l, true
}

func listingSummary(l *listing.Listing) gin.H {
	return gin.H{
		"id":          l.ID(),
		"name":        l.Name(),
		"goal":        l.Goal(),
		"media":       l.Media(),
		"status":      l.Status().String(),
		"num_buyouts": l.NumBuyouts(),
	}
}
