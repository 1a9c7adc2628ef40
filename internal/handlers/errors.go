package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/invoice-relay/httpx"
	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/middleware"
	"github.com/diewo77/invoice-relay/internal/services"
	"go.uber.org/zap"
)

const maxBody = 10 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// writeError maps a service error to its status code and a translated message.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	lang := middleware.LangFrom(r)

	var ve *services.ValidationError
	var re *services.RenderError
	var de *services.DeliveryError
	var pe *services.PersistenceError
	var ue *services.UnknownChannelError
	switch {
	case errors.As(err, &ve):
		httpx.JSONMessage(w, http.StatusUnprocessableEntity, "validation_failed",
			i18n.Tf(lang, "validation_failed", strings.Join(ve.Reasons, ", ")),
			map[string]any{"reasons": ve.Reasons, "fields": ve.Violations.Fields()})
	case errors.Is(err, services.ErrConfirmationRequired):
		httpx.JSONMessage(w, http.StatusConflict, "confirmation_required", i18n.T(lang, "confirmation_required"), nil)
	case services.IsNotFound(err):
		httpx.JSONMessage(w, http.StatusNotFound, "not_found", i18n.T(lang, "not_found"), nil)
	case errors.As(err, &ue):
		httpx.JSONMessage(w, http.StatusBadRequest, "unknown_channel", i18n.Tf(lang, "unknown_channel", ue.Name), nil)
	case errors.As(err, &de):
		httpx.JSONMessage(w, http.StatusBadGateway, string(de.Failure.Kind), de.Failure.Message,
			map[string]any{"channel": de.Channel, "status": de.Failure.Status})
	case errors.As(err, &re):
		log.Error("render failed", zap.Error(err))
		httpx.JSONMessage(w, http.StatusInternalServerError, "render_failed", i18n.Tf(lang, "render_failed", re.Err.Error()), nil)
	case errors.As(err, &pe):
		log.Error("persistence failed", zap.Error(err))
		httpx.JSONMessage(w, http.StatusInternalServerError, "persistence_failed", i18n.Tf(lang, "persistence_failed", pe.Error()), nil)
	default:
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
