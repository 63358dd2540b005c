package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"financechain/models"
	"financechain/pkg/service"
)

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.service.List(c.Request.Context())
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"payments": payments,
	})
}

func (h *Handler) GetPayment(c *gin.Context) {
	payment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.paymentError(c, err)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"payment": payment,
	})
}

// CreatePayment stores a payment and confirms it with a mined block in one step.
func (h *Handler) CreatePayment(c *gin.Context) {
	var in models.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			newErrorResponse(c, http.StatusBadRequest, service.ErrMissingFields.Error())
			return
		}
		newErrorResponse(c, http.StatusBadRequest, "invalid JSON")
		return
	}

	receipt, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.paymentError(c, err)
		return
	}
	h.receipt(c, receipt)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	receipt, err := h.service.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.paymentError(c, err)
		return
	}
	h.receipt(c, receipt)
}

func (h *Handler) receipt(c *gin.Context, r service.PaymentReceipt) {
	wrapOkJSON(c, map[string]interface{}{
		"ok":             true,
		"payment_id":     r.Payment.ID,
		"transaction_id": r.TransactionID,
		"block_id":       r.BlockID,
	})
}

func (h *Handler) paymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		newErrorResponse(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrAlreadyConfirmed):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
