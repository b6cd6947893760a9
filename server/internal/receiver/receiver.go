package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/barocast/barocast/pkg/types"
	"github.com/barocast/barocast/server/internal/store"
)

// maxBodyBytes caps the size of a single report body.
const maxBodyBytes = 64 << 10

// Evaluator is run on every accepted report. *alerts.Engine satisfies it.
type Evaluator interface {
	Evaluate(*types.Report)
}

// Receiver handles report submissions.
type Receiver struct {
	store    *store.Store
	ev       Evaluator
	validate *validator.Validate

	onTransition func(store.Transition)
}

// New creates a Receiver that writes accepted reports to st and evaluates
// them with ev. ev may be nil.
func New(st *store.Store, ev Evaluator) *Receiver {
	v := validator.New()
	v.RegisterStructValidation(forecastCodeMatches, types.Report{})
	return &Receiver{
		store:    st,
		ev:       ev,
		validate: v,
	}
}

// forecastCodeMatches rejects reports whose forecast_code names a different
// category than forecast. Out-of-range values are left to the field tags.
func forecastCodeMatches(sl validator.StructLevel) {
	rep := sl.Current().Interface().(types.Report)
	want, ok := types.ForecastCodeOf(rep.Forecast)
	if !ok || rep.ForecastCode < 0 || rep.ForecastCode > 5 {
		return
	}
	if rep.ForecastCode != want {
		sl.ReportError(rep.ForecastCode, "ForecastCode", "forecast_code", "matchforecast", rep.Forecast)
	}
}

// OnTransition registers fn to be called for every forecast change.
// It must be set before the Receiver starts serving.
func (rc *Receiver) OnTransition(fn func(store.Transition)) {
	rc.onTransition = fn
}

// ServeHTTP implements http.Handler.
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var rep types.Report
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&rep); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := rc.validate.Struct(rep); err != nil {
		jsonErr(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	tr, changed := rc.store.Put(&rep)
	if changed {
		slog.Info("receiver: forecast changed",
			"station", rep.StationID,
			"from", tr.From,
			"to", tr.To,
			"trend_rate", tr.TrendRate,
		)
		if rc.onTransition != nil {
			rc.onTransition(tr)
		}
	}
	if rc.ev != nil {
		rc.ev.Evaluate(&rep)
	}

	slog.Debug("receiver: report stored",
		"station", rep.StationID,
		"id", rep.ID,
		"tick", rep.Tick,
		"forecast", rep.Forecast,
		"error", rep.Error,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "id": rep.ID})
}

// validationMessage flattens validator errors into "field: tag" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return "invalid report: " + strings.Join(parts, "; ")
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
