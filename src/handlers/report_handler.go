package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Tersy89/Share-sales-FIFO/src/logger"
	"github.com/Tersy89/Share-sales-FIFO/src/models"
	"github.com/Tersy89/Share-sales-FIFO/src/services"
	"github.com/Tersy89/Share-sales-FIFO/src/utils"
)

type ReportHandler struct {
	uploadService services.UploadService
}

func NewReportHandler(service services.UploadService) *ReportHandler {
	return &ReportHandler{
		uploadService: service,
	}
}

// HandleGetReport serves the full matching result for a batch with ETag
// support so unchanged reports answer 304.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r) // batchIDFromRequest lives in batch_handler.go
	if !ok {
		return
	}
	logger.L.Debug("Handling report request with ETag support", "batchID", batchID)

	result, err := h.uploadService.GetUploadResult(batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("batch %s not found", batchID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving report data from service", "batchID", batchID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving report for batch %s", batchID), http.StatusInternalServerError)
		return
	}

	if result.SaleDetails == nil {
		result.SaleDetails = []models.SaleDetail{}
	}
	if result.Holdings == nil {
		result.Holdings = []models.PurchaseLot{}
	}
	if result.SaleSummaries == nil {
		result.SaleSummaries = []models.SaleSummary{}
	}
	if result.Warnings == nil {
		result.Warnings = []models.OversoldWarning{}
	}

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for report data", "batchID", batchID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		w.Header().Set("ETag", currentETag)
		if utils.ETagMatches(r, currentETag) {
			logger.L.Info("ETag match for report data", "batchID", batchID, "etag", currentETag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if clientETag := r.Header.Get("If-None-Match"); clientETag != "" {
			logger.L.Debug("ETag mismatch", "batchID", batchID, "clientETags", clientETag, "serverETag", currentETag)
		}
	} else {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error or empty ETag", "batchID", batchID)
	}

	utils.SendJSON(w, http.StatusOK, result)
}

func (h *ReportHandler) HandleGetSales(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.uploadService.GetUploadResult(batchID)
	if err != nil {
		h.writeReportError(w, batchID, err)
		return
	}

	sales := result.SaleDetails
	if sales == nil {
		sales = []models.SaleDetail{}
	}
	utils.SendJSON(w, http.StatusOK, sales)
}

func (h *ReportHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.uploadService.GetUploadResult(batchID)
	if err != nil {
		h.writeReportError(w, batchID, err)
		return
	}

	holdings := result.Holdings
	if holdings == nil {
		holdings = []models.PurchaseLot{}
	}
	utils.SendJSON(w, http.StatusOK, holdings)
}

func (h *ReportHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.uploadService.GetUploadResult(batchID)
	if err != nil {
		h.writeReportError(w, batchID, err)
		return
	}

	summaries := result.SaleSummaries
	if summaries == nil {
		summaries = []models.SaleSummary{}
	}
	utils.SendJSON(w, http.StatusOK, summaries)
}

func (h *ReportHandler) HandleDownloadSalesCSV(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	batch, err := h.uploadService.GetBatch(batchID)
	if err != nil {
		h.writeReportError(w, batchID, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(batch.Filename, "_sales_report.csv")))
	if err := h.uploadService.WriteSalesCSV(batchID, w); err != nil {
		logger.L.Error("Error writing sales CSV", "batchID", batchID, "error", err)
	}
}

func (h *ReportHandler) HandleDownloadHoldingsCSV(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	batch, err := h.uploadService.GetBatch(batchID)
	if err != nil {
		h.writeReportError(w, batchID, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(batch.Filename, "_holdings_report.csv")))
	if err := h.uploadService.WriteHoldingsCSV(batchID, w); err != nil {
		logger.L.Error("Error writing holdings CSV", "batchID", batchID, "error", err)
	}
}

func (h *ReportHandler) HandleDownloadSummaryCSV(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	batch, err := h.uploadService.GetBatch(batchID)
	if err != nil {
		h.writeReportError(w, batchID, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(batch.Filename, "_summary_report.csv")))
	if err := h.uploadService.WriteSummaryCSV(batchID, w); err != nil {
		logger.L.Error("Error writing summary CSV", "batchID", batchID, "error", err)
	}
}

func (h *ReportHandler) writeReportError(w http.ResponseWriter, batchID string, err error) {
	if errors.Is(err, services.ErrBatchNotFound) {
		utils.SendJSONError(w, fmt.Sprintf("batch %s not found", batchID), http.StatusNotFound)
		return
	}
	logger.L.Error("Error retrieving report data from service", "batchID", batchID, "error", err)
	utils.SendJSONError(w, fmt.Sprintf("Error retrieving report for batch %s", batchID), http.StatusInternalServerError)
}

// downloadName derives the attachment name from the uploaded filename, e.g.
// trades.csv becomes trades_sales_report.csv.
func downloadName(uploadedFilename, suffix string) string {
	base := filepath.Base(uploadedFilename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "transactions"
	}
	return stem + suffix
}
