package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	quoteService service.QuoteService
}

func NewQuoteHandler(quoteService service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

func (h *QuoteHandler) RegisterRoutes(router *gin.RouterGroup) {
	devis := router.Group("/api/devis", middleware.RequireAuth())
	{
		devis.POST("", h.CreateQuote)
		devis.GET("", h.ListQuotes)
		devis.GET("/:id", h.GetQuote)
		devis.PATCH("/:id", h.UpdateQuote)
		devis.POST("/:id/convertir-facture", h.ConvertToInvoice)
	}
}

// CreateQuote creates a new draft quote with its line items
// @Summary      Create quote
// @Description  Creates a new draft quote (devis) with at least one line item
// @Tags         devis
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateQuoteRequest  true  "Create Quote Payload"
// @Success      201      {object}  response.Response{data=service.QuoteResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/devis [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req service.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.quoteService.CreateQuote(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quote))
}

// ListQuotes returns a paginated list of the caller's quotes
// @Summary      List quotes
// @Description  Retrieves a paginated list of quotes, optionally filtered by status
// @Tags         devis
// @Security     BearerAuth
// @Produce      json
// @Param        statut  query     string  false  "Filter by status (BROUILLON, ENVOYE, ACCEPTE, REFUSE, EXPIRE)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/devis [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.QuoteFilter{
		Statut: c.Query("statut"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	quotes, total, err := h.quoteService.ListQuotes(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"devis": quotes,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetQuote returns one quote with its lines
// @Summary      Get quote
// @Tags         devis
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      200  {object}  response.Response{data=service.QuoteResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/devis/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.quoteService.GetQuote(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// UpdateQuote edits lines, notes, validity date or status of a quote
// @Summary      Update quote
// @Description  Replaces the full line set and/or edits notes, validity date and status
// @Tags         devis
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Quote ID"
// @Param        payload  body      service.UpdateQuoteRequest  true  "Update Quote Payload"
// @Success      200      {object}  response.Response{data=service.QuoteResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/devis/{id} [patch]
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	var req service.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.quoteService.UpdateQuote(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// ConvertToInvoice turns an accepted quote into a new draft invoice
// @Summary      Convert quote to invoice
// @Description  Creates a draft invoice from an accepted quote, copying lines and totals
// @Tags         devis
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/devis/{id}/convertir-facture [post]
func (h *QuoteHandler) ConvertToInvoice(c *gin.Context) {
	invoice, err := h.quoteService.ConvertToInvoice(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}
