package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Tersy89/Share-sales-FIFO/src/logger"
	"github.com/Tersy89/Share-sales-FIFO/src/models"
	"github.com/Tersy89/Share-sales-FIFO/src/services"
	"github.com/Tersy89/Share-sales-FIFO/src/utils"
	"github.com/google/uuid"
)

type BatchHandler struct {
	uploadService services.UploadService
}

func NewBatchHandler(service services.UploadService) *BatchHandler {
	return &BatchHandler{
		uploadService: service,
	}
}

// batchIDFromRequest extracts and validates the {batchID} path segment. On
// failure it writes the error response and returns false.
func batchIDFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	batchID := r.PathValue("batchID")
	if err := uuid.Validate(batchID); err != nil {
		logger.L.Warn("Invalid batch ID in request path", "batchID", batchID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("invalid batch id %q", batchID), http.StatusBadRequest)
		return "", false
	}
	return batchID, true
}

func (h *BatchHandler) HandleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.uploadService.ListBatches()
	if err != nil {
		logger.L.Error("Error listing batches", "error", err)
		utils.SendJSONError(w, "Error retrieving batches", http.StatusInternalServerError)
		return
	}

	if batches == nil {
		batches = []models.Batch{}
	}
	utils.SendJSON(w, http.StatusOK, batches)
}

func (h *BatchHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	transactions, err := h.uploadService.GetTransactions(batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("batch %s not found", batchID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving transactions", "batchID", batchID, "error", err)
		utils.SendJSONError(w, "Error retrieving transactions", http.StatusInternalServerError)
		return
	}

	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSON(w, http.StatusOK, transactions)
}

func (h *BatchHandler) HandleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.uploadService.DeleteBatch(batchID); err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("batch %s not found", batchID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error deleting batch", "batchID", batchID, "error", err)
		utils.SendJSONError(w, "Error deleting batch", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Batch deleted", "batchID", batchID)
	w.WriteHeader(http.StatusNoContent)
}
