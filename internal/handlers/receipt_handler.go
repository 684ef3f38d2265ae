package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/facturado/billing-api/internal/middleware"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/internal/services"
)

type ReceiptHandler struct {
	receiptService *services.ReceiptService
}

func NewReceiptHandler(receiptService *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// @Summary List Receipts
// @Description Get a paginated list of receipts
// @Tags Receipts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param client_id query int false "Filter by client"
// @Param invoice_id query int false "Filter by linked invoice"
// @Param payment_method query string false "Filter by payment method"
// @Param start_date query string false "Receipt date from (YYYY-MM-DD)"
// @Param end_date query string false "Receipt date to (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /receipts [get]
func (h *ReceiptHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["client_id"] = c.Query("client_id")
	query.Filters["invoice_id"] = c.Query("invoice_id")
	query.Filters["payment_method"] = c.Query("payment_method")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	if search := c.Query("search"); search != "" {
		query.Filters["search_term"] = search
	}
	query.SortBy, query.SortDir = parseSort(c)

	receipts, total, err := h.receiptService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range receipts {
		responses = append(responses, receipts[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"receipts": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Receipt
// @Description Get a receipt by ID
// @Tags Receipts
// @Accept json
// @Produce json
// @Param receipt_id path int true "Receipt ID"
// @Success 200 {object} models.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /receipts/{receipt_id} [get]
func (h *ReceiptHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("receipt_id"), 10, 32)
	receipt, err := h.receiptService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt.ToResponse()})
}

// @Summary Create Receipt
// @Description Record money received. When linked to an invoice the invoice status is reconciled in the same transaction.
// @Tags Receipts
// @Accept json
// @Produce json
// @Param request body services.CreateReceiptInput true "Receipt"
// @Success 201 {object} models.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /receipts [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	var input services.CreateReceiptInput
	if err := BindNestedOrFlat(c, "receipt", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	receipt, err := h.receiptService.Create(c.Request.Context(), &input,
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipt": receipt.ToResponse()})
}

// @Summary Update Receipt
// @Description Update a receipt. Changing the amount or invoice link reconciles every affected invoice.
// @Tags Receipts
// @Accept json
// @Produce json
// @Param receipt_id path int true "Receipt ID"
// @Param request body services.UpdateReceiptInput true "Fields to update"
// @Success 200 {object} models.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /receipts/{receipt_id} [put]
func (h *ReceiptHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("receipt_id"), 10, 32)
	var input services.UpdateReceiptInput
	if err := BindNestedOrFlat(c, "receipt", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	receipt, err := h.receiptService.Update(c.Request.Context(), uint(id), &input,
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt.ToResponse()})
}

// @Summary Delete Receipt
// @Description Delete a receipt. A linked invoice is reconciled without the deleted amount in the same transaction.
// @Tags Receipts
// @Accept json
// @Produce json
// @Param receipt_id path int true "Receipt ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /receipts/{receipt_id} [delete]
func (h *ReceiptHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("receipt_id"), 10, 32)
	err := h.receiptService.Delete(c.Request.Context(), uint(id),
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receipt deleted"})
}
