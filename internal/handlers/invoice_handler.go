package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/facturado/billing-api/internal/middleware"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/internal/services"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	exportService  *services.ExportService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService, exportService *services.ExportService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, exportService: exportService}
}

// @Summary List Invoices
// @Description Get a paginated list of invoices
// @Tags Invoices
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param client_id query int false "Filter by client"
// @Param start_date query string false "Invoice date from (YYYY-MM-DD)"
// @Param end_date query string false "Invoice date to (YYYY-MM-DD)"
// @Param search query string false "Search by invoice number or client name"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["client_id"] = c.Query("client_id")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	if search := c.Query("search"); search != "" {
		query.Filters["search_term"] = search
	}
	query.SortBy, query.SortDir = parseSort(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range invoices {
		responses = append(responses, invoices[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Invoice
// @Description Get an invoice by ID with its line items
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{invoice_id} [get]
func (h *InvoiceHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	invoice, err := h.invoiceService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Create Invoice
// @Description Create a draft invoice. The invoice number is allocated atomically from the account sequence.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body services.CreateInvoiceInput true "Invoice"
// @Success 201 {object} models.InvoiceResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var input services.CreateInvoiceInput
	if err := BindNestedOrFlat(c, "invoice", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), &input,
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Update Invoice
// @Description Update an invoice. Paid and cancelled invoices are immutable. Sending items replaces the full set and recomputes totals.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Param request body services.UpdateInvoiceInput true "Fields to update"
// @Success 200 {object} models.InvoiceResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{invoice_id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	var input services.UpdateInvoiceInput
	if err := BindNestedOrFlat(c, "invoice", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), uint(id), &input,
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Delete Invoice
// @Description Delete a draft invoice and its line items. Only drafts may be deleted.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{invoice_id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	err := h.invoiceService.Delete(c.Request.Context(), uint(id),
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}

// @Summary Send Invoice
// @Description Transition a draft invoice to sent
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{invoice_id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	invoice, err := h.invoiceService.Send(c.Request.Context(), uint(id),
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse(), "message": "Invoice sent"})
}

// @Summary Cancel Invoice
// @Description Cancel an invoice. Paid invoices cannot be cancelled.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{invoice_id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	invoice, err := h.invoiceService.Cancel(c.Request.Context(), uint(id),
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse(), "message": "Invoice cancelled"})
}

// @Summary Invoice Stats
// @Description Get invoice counts grouped by status
// @Tags Invoices
// @Accept json
// @Produce json
// @Success 200 {object} services.InvoiceStats
// @Security BearerAuth
// @Router /invoices/stats [get]
func (h *InvoiceHandler) Stats(c *gin.Context) {
	stats, err := h.invoiceService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Download Invoice PDF
// @Description Render the invoice as a PDF document
// @Tags Invoices
// @Produce application/pdf
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {file} file "invoice"
// @Security BearerAuth
// @Router /invoices/{invoice_id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	invoice, err := h.invoiceService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	data, filename, err := h.exportService.InvoicePDF(c.Request.Context(), invoice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
