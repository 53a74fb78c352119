package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
	"github.com/sbilibin2017/gw-recharge-client/internal/services"
)

//go:generate mockgen -source=channels.go -destination=mock_channels_test.go -package=handlers

// ChannelLister defines the interface that the channel directory must implement.
type ChannelLister interface {
	Refresh(ctx context.Context, scope models.ChannelScope) error // Reloads the list for scope
	Loaded() bool                                                 // Reports whether any refresh succeeded
	Err() error                                                   // Returns the error of the last refresh
	Channels() []models.Channel                                   // Returns every loaded channel
	Filter(method models.Method) []models.Channel                 // Returns active channels of method
}

func channelViews(channels []models.Channel) []models.ChannelView {
	views := make([]models.ChannelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, models.ChannelView{
			Channel:        ch,
			Badge:          ch.Badge(),
			PaymentDetails: ch.PaymentDetails(),
		})
	}
	return views
}

// NewListChannelsHandler returns an HTTP handler listing channels of one
// scope. Funding listings are filtered by method (USDT by default); admin
// listings return every channel newest first. The list is loaded on first
// use and reloaded when refresh=true.
// @Summary List payment channels
// @Description Returns payment channels for the selected method
// @Tags channels
// @Produce json
// @Param method query string false "Payment method: USDT, UPI or BANK"
// @Param refresh query bool false "Reload the channel list"
// @Success 200 {object} models.ChannelsResponse "Channels"
// @Failure 503 {object} models.ChannelsResponse "Channels could not be loaded"
// @Router /channels [get]
func NewListChannelsHandler(channelLister ChannelLister, scope models.ChannelScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		method := models.MethodUSDT
		if q := strings.TrimSpace(r.URL.Query().Get("method")); q != "" {
			method = models.Method(strings.ToUpper(q))
		}

		if r.URL.Query().Get("refresh") == "true" || !channelLister.Loaded() {
			if err := channelLister.Refresh(ctx, scope); err != nil && !channelLister.Loaded() {
				logger.Log.Errorw("no channels to serve", "scope", scope, "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(models.ChannelsResponse{
					Method:   method,
					Channels: []models.ChannelView{},
					Error:    services.Message(err),
				})
				return
			}
		}

		var channels []models.Channel
		if scope == models.ScopeAdmin {
			channels = channelLister.Channels()
		} else {
			channels = channelLister.Filter(method)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(models.ChannelsResponse{
			Method:   method,
			Channels: channelViews(channels),
			Error:    services.Message(channelLister.Err()),
		})
	}
}
