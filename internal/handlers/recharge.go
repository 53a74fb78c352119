package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
	"github.com/sbilibin2017/gw-recharge-client/internal/services"
)

//go:generate mockgen -source=recharge.go -destination=mock_recharge_test.go -package=handlers

// RechargeFormReader defines only the methods needed to render the form.
type RechargeFormReader interface {
	Form() models.RechargeForm    // Returns a snapshot of the form
	CanSubmit(fetching bool) bool // Reports whether submit is enabled
}

// FetchStater reports whether the channel list is loading.
type FetchStater interface {
	Fetching() bool
}

// MethodSelector switches the payment method.
type MethodSelector interface {
	SelectMethod(method models.Method) error
}

// ChannelSelector selects a channel on the form.
type ChannelSelector interface {
	SelectChannel(ch models.Channel) error
}

// ChannelFinder looks up a loaded channel by id.
type ChannelFinder interface {
	Lookup(id int64) (models.Channel, bool)
}

// FormEditor edits the amount and transaction hash fields.
type FormEditor interface {
	SetAmount(amount string) error // Sets the amount as typed
	SetTxID(txID string) error     // Sets the transaction hash as typed
	ApplyQuickAmount(n int) error  // Sets the amount to a preset
}

// RechargeSubmitter submits the form.
type RechargeSubmitter interface {
	Submit(ctx context.Context) error
}

// rechargeStatus maps a form error to an HTTP status.
func rechargeStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrSubmitFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeRechargeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.RechargeErrorResponse{
		Error: message,
	})
}

// NewGetRechargeFormHandler returns an HTTP handler rendering the form state.
// @Summary Get recharge form
// @Description Returns the recharge form and whether it can be submitted
// @Tags recharge
// @Produce json
// @Success 200 {object} models.RechargeForm "Form state"
// @Failure 401 {object} models.RechargeErrorResponse "Not logged in"
// @Router /recharge [get]
func NewGetRechargeFormHandler(formReader RechargeFormReader, fetchStater FetchStater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := formReader.Form()
		form.CanSubmit = formReader.CanSubmit(fetchStater.Fetching())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(form)
	}
}

// NewSelectMethodHandler returns an HTTP handler switching the payment method.
// @Summary Select payment method
// @Description Switches the payment method and clears the selected channel
// @Tags recharge
// @Accept json
// @Produce json
// @Param request body models.SelectMethodRequest true "Payment method"
// @Success 204 "Method selected"
// @Failure 400 {object} models.RechargeErrorResponse "Invalid method"
// @Failure 409 {object} models.RechargeErrorResponse "Submission in progress"
// @Router /recharge/method [put]
func NewSelectMethodHandler(methodSelector MethodSelector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req models.SelectMethodRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode select method request", "error", err)
			writeRechargeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		method, ok := models.ParseMethod(req.Method)
		if !ok {
			writeRechargeError(w, http.StatusBadRequest, "Unknown payment method")
			return
		}

		if err := methodSelector.SelectMethod(method); err != nil {
			writeRechargeError(w, rechargeStatus(err), services.Message(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewSelectChannelHandler returns an HTTP handler selecting a loaded channel.
// @Summary Select channel
// @Description Selects an active channel of the current payment method
// @Tags recharge
// @Accept json
// @Produce json
// @Param request body models.SelectChannelRequest true "Channel id"
// @Success 204 "Channel selected"
// @Failure 400 {object} models.RechargeErrorResponse "Channel cannot be selected"
// @Failure 404 {object} models.RechargeErrorResponse "Channel not found"
// @Failure 409 {object} models.RechargeErrorResponse "Submission in progress"
// @Router /recharge/channel [put]
func NewSelectChannelHandler(channelSelector ChannelSelector, channelFinder ChannelFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req models.SelectChannelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode select channel request", "error", err)
			writeRechargeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		ch, ok := channelFinder.Lookup(req.ChannelID)
		if !ok {
			writeRechargeError(w, http.StatusNotFound, "Channel not found")
			return
		}

		if err := channelSelector.SelectChannel(ch); err != nil {
			writeRechargeError(w, rechargeStatus(err), services.Message(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewUpdateRechargeFormHandler returns an HTTP handler editing form fields.
// Fields absent from the body are left unchanged; a quick amount overrides
// the typed amount.
// @Summary Update recharge form
// @Description Sets the amount and transaction hash
// @Tags recharge
// @Accept json
// @Produce json
// @Param request body models.UpdateFormRequest true "Form fields"
// @Success 204 "Form updated"
// @Failure 400 {object} models.RechargeErrorResponse "Invalid request"
// @Failure 409 {object} models.RechargeErrorResponse "Submission in progress"
// @Router /recharge/form [put]
func NewUpdateRechargeFormHandler(formEditor FormEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req models.UpdateFormRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode update form request", "error", err)
			writeRechargeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var err error
		if req.Amount != nil {
			err = formEditor.SetAmount(*req.Amount)
		}
		if err == nil && req.QuickAmount != nil {
			err = formEditor.ApplyQuickAmount(*req.QuickAmount)
		}
		if err == nil && req.TxID != nil {
			err = formEditor.SetTxID(*req.TxID)
		}
		if err != nil {
			writeRechargeError(w, rechargeStatus(err), services.Message(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewSubmitRechargeHandler returns an HTTP handler submitting the form.
// @Summary Submit recharge
// @Description Validates the form and stores one pending recharge request
// @Tags recharge
// @Produce json
// @Success 200 {object} models.RechargeResponse "Recharge submitted"
// @Failure 400 {object} models.RechargeErrorResponse "Validation failed"
// @Failure 401 {object} models.RechargeErrorResponse "Not logged in"
// @Failure 409 {object} models.RechargeErrorResponse "Submission in progress"
// @Failure 500 {object} models.RechargeErrorResponse "Submission failed"
// @Router /recharge/submit [post]
func NewSubmitRechargeHandler(rechargeSubmitter RechargeSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := rechargeSubmitter.Submit(r.Context()); err != nil {
			logger.Log.Errorw("recharge submission rejected", "error", err)
			writeRechargeError(w, rechargeStatus(err), services.Message(err))
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(models.RechargeResponse{
			Message: services.SuccessMessage,
		})
	}
}
