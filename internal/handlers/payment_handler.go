package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/facturado/billing-api/internal/middleware"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	exportService  *services.ExportService
}

func NewPaymentHandler(paymentService *services.PaymentService, exportService *services.ExportService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, exportService: exportService}
}

func (h *PaymentHandler) listQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["client_id"] = c.Query("client_id")
	query.Filters["payment_method"] = c.Query("payment_method")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")
	query.SortBy, query.SortDir = parseSort(c)
	return query
}

// @Summary List Payments
// @Description Get a paginated list of payment records
// @Tags Payments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param client_id query int false "Filter by client"
// @Param start_date query string false "Payment date from (YYYY-MM-DD)"
// @Param end_date query string false "Payment date to (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := h.listQuery(c)

	payments, total, err := h.paymentService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Payment
// @Description Get a payment record by ID
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} models.PaymentResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	payment, err := h.paymentService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Record Payment
// @Description Append a payment record to the reporting log. Does not change invoice status; link a receipt for that.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body services.RecordPaymentInput true "Payment"
// @Success 201 {object} models.PaymentResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var input services.RecordPaymentInput
	if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	payment, err := h.paymentService.Record(c.Request.Context(), &input,
		middleware.GetActor(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment.ToResponse()})
}

// @Summary Payment Statistics
// @Description Get daily revenue points for a month
// @Tags Payments
// @Accept json
// @Produce json
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year (YYYY)"
// @Success 200 {object} []services.RevenuePoint
// @Security BearerAuth
// @Router /payments/statistics [get]
func (h *PaymentHandler) Statistics(c *gin.Context) {
	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))

	if month < 1 || month > 12 || year < 2000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month or year"})
		return
	}

	stats, err := h.paymentService.GetMonthlyStatistics(c.Request.Context(), month, year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// @Summary Export Payments CSV
// @Description Download the filtered payment log as CSV
// @Tags Payments
// @Produce text/csv
// @Success 200 {file} file "payments"
// @Security BearerAuth
// @Router /payments/export/csv [get]
func (h *PaymentHandler) ExportCSV(c *gin.Context) {
	query := h.listQuery(c)
	query.PerPage = 10000

	buf, err := h.exportService.PaymentsCSV(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("payments_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Export Payments XLSX
// @Description Download the filtered payment log as an Excel workbook
// @Tags Payments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "payments"
// @Security BearerAuth
// @Router /payments/export/xlsx [get]
func (h *PaymentHandler) ExportXLSX(c *gin.Context) {
	query := h.listQuery(c)
	query.PerPage = 10000

	data, filename, err := h.exportService.PaymentsXLSX(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
