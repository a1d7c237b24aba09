package auctionhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"auctionhousego/internal/http/identity"
	"auctionhousego/internal/money"
	"auctionhousego/internal/services/auction"
)

type Handler struct {
	svc auction.IAuctionService
}

func New(svc auction.IAuctionService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/auctions", h.list)
	// Static segment kept off the /auctions/:id subtree; gin's router does
	// not allow "admin" to shadow the id wildcard.
	r.GET("/admin/auctions/overview", identity.RequireAdmin(), h.overview)
	r.GET("/auctions/:id", h.info)
	r.GET("/auctions/:id/top", h.top)
	r.GET("/auctions/:id/winner", h.winner)
	r.POST("/auctions", identity.RequireAdmin(), h.create)
	r.POST("/auctions/:id/relist", identity.RequireAdmin(), h.relist)
	r.POST("/auctions/:id/bid", identity.RequireAuth(), h.bid)
}

// writeError maps service errors onto the HTTP taxonomy. Validation
// rejections stay 4xx and keep their user-facing message.
func writeError(c *gin.Context, err error) {
	var tooLow *auction.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: tooLow.Error(), MinRequired: tooLow.MinRequired})
	case errors.Is(err, auction.ErrAuctionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auction.ErrAuctionInactive),
		errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, auction.ErrAuctionNotEnded),
		errors.Is(err, auction.ErrMissingFields),
		errors.Is(err, auction.ErrEndsBeforeStarts):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auction.ErrActiveLimit):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// @Summary		List active auctions
// @Tags			Auctions
// @Param			sort	query		string	false	"Sort order"	Enums(latest,ending)
// @Param			limit	query		int		false	"Max results (0-100)"	default(50)
// @Success		200		{array}		auction.AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(c *gin.Context) {
	var q ListAuctionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListAuctions(c.Request.Context(), q.Sort, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Get auction details
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.AuctionDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(c *gin.Context) {
	dto, err := h.svc.GetAuction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Lightweight bid status for polling
// @Description	Clients that missed real-time events resync through this.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.TopStatus
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/top [get]
func (h *Handler) top(c *gin.Context) {
	st, err := h.svc.TopStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary		Winner of an ended auction
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.WinnerDTO
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/winner [get]
func (h *Handler) winner(c *gin.Context) {
	w, err := h.svc.Winner(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary		Create an auction listing
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Listing payload"
// @Success		201		{object}	auction.AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(c *gin.Context) {
	var body CreateAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	in := auction.CreateAuctionInput{
		SellerID:        identity.UserID(c),
		Title:           body.Title,
		Description:     body.Description,
		Condition:       body.Condition,
		PersonalPickup:  body.PersonalPickup,
		CourierShipping: body.CourierShipping,
		Invoice:         body.Invoice,
		StartsAt:        body.StartsAt.UTC(),
		EndsAt:          body.EndsAt.UTC(),
	}

	var err error
	if in.BasePrice, err = money.ToMinorUnits(body.BasePrice); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "base_price: " + err.Error()})
		return
	}
	if in.MinIncrement, err = money.ToMinorUnits(body.MinIncrement); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "min_increment: " + err.Error()})
		return
	}
	if body.ReservePrice != "" {
		if in.ReservePrice, err = money.ToMinorUnits(body.ReservePrice); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "reserve_price: " + err.Error()})
			return
		}
	}

	dto, err := h.svc.CreateAuction(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Relist an ended auction
// @Tags			Auctions
// @Param			id		path		string		true	"Auction ID"
// @Param			body	body		RelistBody	true	"New pricing and window"
// @Success		201		{object}	auction.AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Router			/auctions/{id}/relist [post]
func (h *Handler) relist(c *gin.Context) {
	var body RelistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	in := auction.RelistInput{StartsAt: body.StartsAt.UTC(), EndsAt: body.EndsAt.UTC()}
	var err error
	if in.BasePrice, err = money.ToMinorUnits(body.BasePrice); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "base_price: " + err.Error()})
		return
	}
	if in.MinIncrement, err = money.ToMinorUnits(body.MinIncrement); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "min_increment: " + err.Error()})
		return
	}

	dto, err := h.svc.Relist(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Place a bid
// @Description	Synchronous twin of the websocket "auctions/bid" event; both run the same rules.
// @Tags			Auctions
// @Param			id		path		string			true	"Auction ID"
// @Param			body	body		PlaceBidBody	true	"Bid in minor units"
// @Success		200		{object}	auction.BidReceipt
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Router			/auctions/{id}/bid [post]
func (h *Handler) bid(c *gin.Context) {
	var body PlaceBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	receipt, err := h.svc.PlaceBid(c.Request.Context(), c.Param("id"), identity.UserID(c), body.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// @Summary		Admin overview of all auctions
// @Tags			Auctions
// @Success		200	{object}	auction.Overview
// @Failure		403	{object}	ErrorResponse
// @Router			/admin/auctions/overview [get]
func (h *Handler) overview(c *gin.Context) {
	ov, err := h.svc.AdminOverview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
