package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/chargebooking-backend/booking"
	"github.com/semanticallynull/chargebooking-backend/internal/middleware"
	"github.com/semanticallynull/chargebooking-backend/invoice"
	"github.com/semanticallynull/chargebooking-backend/payment"
	"github.com/semanticallynull/chargebooking-backend/pricing"
	"github.com/semanticallynull/chargebooking-backend/station"
)

const (
	codeValidationFailed   = "VALIDATION_FAILED"
	codeNotFound           = "NOT_FOUND"
	codePaymentInProgress  = "PAYMENT_IN_PROGRESS"
	codePaymentFailed      = "PAYMENT_FAILED"
	codeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInvoiceIssued      = "INVOICE_ISSUED"
	codeRequestCancelled   = "REQUEST_CANCELLED"
	codeRequestTimeout     = "REQUEST_TIMEOUT"
	codeInternal           = "INTERNAL_ERROR"
)

var (
	errSessionNotFound = errors.New("session not found")
	errNoCheckout      = errors.New("reservation has not been submitted")
)

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

// respondError maps domain errors to the JSON error envelope.
func respondError(c *gin.Context, err error) {
	if msg, ok := booking.ValidationMessage(err); ok {
		abort(c, http.StatusUnprocessableEntity, codeValidationFailed, msg)
		return
	}
	if reason, ok := payment.FailureReason(err); ok {
		abort(c, http.StatusPaymentRequired, codePaymentFailed, reason)
		return
	}

	switch {
	case errors.Is(err, booking.ErrInvalidTransition):
		abort(c, http.StatusConflict, codeValidationFailed, "that action is not available at this step")
	case errors.Is(err, pricing.ErrInvalidEnergy),
		errors.Is(err, invoice.ErrInvalidMethod),
		errors.Is(err, payment.ErrUnpayableAmount):
		abort(c, http.StatusUnprocessableEntity, codeValidationFailed, err.Error())
	case errors.Is(err, payment.ErrPaymentInProgress):
		abort(c, http.StatusConflict, codePaymentInProgress, "a payment is already being processed")
	case errors.Is(err, payment.ErrInvoiceIssued):
		abort(c, http.StatusConflict, codeInvoiceIssued, err.Error())
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, errNoCheckout),
		errors.Is(err, station.ErrNotFound),
		errors.Is(err, payment.ErrNoInvoice):
		abort(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, context.Canceled):
		abort(c, http.StatusServiceUnavailable, codeRequestCancelled, "request cancelled before it completed")
	case errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusGatewayTimeout, codeRequestTimeout, "request timed out")
	default:
		middleware.GetLogger(c).ErrorContext(c, "unhandled error", "error", err)
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// respondCatalogError treats anything but a missing station as the catalog being unreachable.
func respondCatalogError(c *gin.Context, err error) {
	if errors.Is(err, station.ErrNotFound) {
		abort(c, http.StatusNotFound, codeNotFound, "station not found")
		return
	}
	middleware.GetLogger(c).WarnContext(c, "catalog unavailable", "error", err)
	_ = c.Error(err)
	abort(c, http.StatusBadGateway, codeCatalogUnavailable, "station catalog is unavailable, try again")
}
