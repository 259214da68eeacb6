package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"

	"github.com/uneedwind/webhook-gateway/internal/ecpay"
)

const ecpayCallbackPath = "/api/ecpay/callback"

// ecpayCORS allows the ECPay notification to be posted from any origin.
// Preflights fall through to the handler, which answers non-POST with 405.
func ecpayCORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodPost},
		AllowedHeaders:     []string{"Content-Type"},
		OptionsPassthrough: true,
	}).Handler
}

// ecpayCallback relays a payment notification upstream and answers with the
// plain-text acknowledgement ECPay expects.
func (h *handler) ecpayCallback(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r).With(slog.String("route", ecpayCallbackPath))

	if r.Method != http.MethodPost {
		logger.Warn("ecpay callback rejected", slog.String("method", r.Method))
		writeAck(w, http.StatusMethodNotAllowed, ecpay.AckMethodNotAllowed)
		return
	}

	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		logger.Error("ecpay request error", slog.String("error", err.Error()))
		writeAck(w, http.StatusInternalServerError, ecpay.AckRequestError)
		return
	}
	logger.Info("ecpay callback received",
		slog.String("content_type", r.Header.Get("Content-Type")),
		slog.String("body", string(body)),
	)

	cb, err := ecpay.ParseCallback(string(body))
	if err != nil {
		h.metrics.IncParseFailure("ecpay_callback")
		logger.Error("ecpay parse error", slog.String("error", err.Error()))
		writeAck(w, http.StatusBadRequest, ecpay.AckParseError)
		return
	}
	if err := cb.Validate(); err != nil {
		h.metrics.IncParseFailure("ecpay_callback")
		logger.Error("ecpay callback missing fields", slog.String("error", err.Error()))
		writeAck(w, http.StatusBadRequest, ecpay.AckMissingFields)
		return
	}

	resp, err := h.relay.Forward(r.Context(), cb.Payload(h.now()))
	switch {
	case errors.Is(err, ecpay.ErrUpstreamRejected):
		logger.Error("ecpay upstream rejected callback",
			slog.Int("upstream_status", resp.StatusCode),
			slog.String("upstream_body", resp.Body),
		)
		writeAck(w, http.StatusInternalServerError, ecpay.AckUpstreamError)
		return
	case err != nil:
		logger.Error("ecpay forward failed", slog.String("error", err.Error()))
		writeAck(w, http.StatusInternalServerError, ecpay.AckInternalError)
		return
	}

	logger.Info("ecpay callback relayed",
		slog.String("merchant_trade_no", cb.MerchantTradeNo),
		slog.Int("upstream_status", resp.StatusCode),
		slog.String("upstream_body", resp.Body),
	)
	writeAck(w, http.StatusOK, ecpay.AckOK)
}

func writeAck(w http.ResponseWriter, status int, ack string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, ack)
}
