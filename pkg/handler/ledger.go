package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"financechain/models"
	"financechain/pkg/service"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetTransactions returns the whole ledger: unmined transactions and the chain.
func (h *Handler) GetTransactions(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddTransaction stores a transaction and mines it into its own block.
// A wallet signature, when present, must come from the given address.
func (h *Handler) AddTransaction(c *gin.Context) {
	var in models.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid JSON")
		return
	}

	tx, block, err := h.service.AddTransaction(c.Request.Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrSignatureMismatch),
		errors.Is(err, service.ErrSignatureInvalid):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	default:
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, models.TransactionResponse{
		OK:            true,
		TransactionID: tx.ID,
		BlockID:       block.ID,
	})
}
