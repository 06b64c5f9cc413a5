package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/chargebooking-backend/internal/middleware"
	"github.com/semanticallynull/chargebooking-backend/invoice"
	"github.com/semanticallynull/chargebooking-backend/payment"
)

type checkoutResponse struct {
	Summary []invoice.Row    `json:"summary"`
	Quote   payment.Quote    `json:"quote"`
	Paying  bool             `json:"paying"`
	Invoice *invoice.Invoice `json:"invoice,omitempty"`
}

type updateCheckoutRequest struct {
	EnergyKwh     *float64 `json:"energyKwh"`
	PaymentMethod *string  `json:"paymentMethod"`
}

func toCheckoutResponse(co *payment.Checkout) checkoutResponse {
	resp := checkoutResponse{
		Summary: co.Summary(),
		Quote:   co.Quote(),
		Paying:  co.Paying(),
	}
	if inv, ok := co.Invoice(); ok {
		resp.Invoice = &inv
	}
	return resp
}

// checkoutOf returns the session's checkout without holding the session lock afterwards.
func checkoutOf(sess *session) (*payment.Checkout, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.checkout == nil {
		return nil, errNoCheckout
	}
	return sess.checkout, nil
}

func (a *API) submitHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout != nil {
		if sess.checkout.Paying() {
			respondError(c, payment.ErrPaymentInProgress)
			return
		}
		// An issued invoice is only dropped by an explicit dismiss.
		if _, issued := sess.checkout.Invoice(); issued {
			respondError(c, payment.ErrInvoiceIssued)
			return
		}
	}
	handoff, err := sess.wizard.Submit()
	if err != nil {
		respondError(c, err)
		return
	}
	sess.checkout = payment.NewCheckout(handoff, a.processor)
	middleware.GetLogger(c).InfoContext(c, "reservation submitted",
		"session_id", sess.id,
		"station_id", handoff.Station.ID,
		"charger_id", handoff.Charger.ID,
	)
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (a *API) updateCheckoutHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	co, err := checkoutOf(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	if req.EnergyKwh != nil {
		if err := co.SetEnergy(*req.EnergyKwh); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.PaymentMethod != nil {
		m, err := invoice.ParseMethod(*req.PaymentMethod)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := co.SetMethod(m); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toCheckoutResponse(co))
}

// payHandler blocks for the simulated round trip. A second request while
// one is pending is refused, not queued.
func (a *API) payHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	co, err := checkoutOf(sess)
	if err != nil {
		respondError(c, err)
		return
	}

	inv, err := co.Pay(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WarnContext(c, "payment failed", "session_id", sess.id, "error", err)
		respondError(c, err)
		return
	}
	middleware.GetLogger(c).InfoContext(c, "invoice issued", "session_id", sess.id, "invoice", inv.Code)
	c.JSON(http.StatusCreated, inv)
}

func (a *API) invoiceHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	co, err := checkoutOf(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	inv, ok := co.Invoice()
	if !ok {
		respondError(c, payment.ErrNoInvoice)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv, "rows": inv.Rows()})
}

func (a *API) dismissInvoiceHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	co, err := checkoutOf(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	co.Dismiss()
	c.Status(http.StatusNoContent)
}

func (a *API) printInvoiceHandler(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	co, err := checkoutOf(sess)
	if err != nil {
		respondError(c, err)
		return
	}

	format := invoice.Format(c.DefaultQuery("format", string(invoice.FormatPDF)))
	if format != invoice.FormatPDF && format != invoice.FormatXLSX {
		abort(c, http.StatusBadRequest, codeInvalidRequest, "format must be pdf or xlsx")
		return
	}
	b, err := co.PrintView(format)
	if err != nil {
		respondError(c, err)
		return
	}
	inv, _ := co.Invoice()
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, inv.Code, format))
	c.Data(http.StatusOK, format.ContentType(), b)
}
