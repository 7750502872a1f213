package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/tempprint/internal/config"
	"github.com/kjstillabower/tempprint/internal/lifecycle"
	"github.com/kjstillabower/tempprint/internal/tempprint"
	"github.com/kjstillabower/tempprint/internal/validation"
)

// Handler holds dependencies for the control API handlers.
type Handler struct {
	printer          *tempprint.Printer
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(printer *tempprint.Printer, logger *zap.Logger) *Handler {
	return &Handler{
		printer: printer,
		logger:  logger,
	}
}

// printRequest is the POST /print body. Durations use Go syntax ("1.5s").
type printRequest struct {
	Text        string  `json:"text"`
	Values      []any   `json:"values"`
	Sep         *string `json:"sep"`
	End         string  `json:"end"`
	DisplayTime string  `json:"display_time"`
	Delay       string  `json:"delay"`
	PostDelay   string  `json:"post_delay"`
	Priority    bool    `json:"priority"`
	Overwrite   bool    `json:"overwrite"`
	Persistent  bool    `json:"persistent"`
}

var errBadDuration = errors.New("invalid duration")

func (pr printRequest) options() ([]tempprint.Option, error) {
	var opts []tempprint.Option
	if pr.Sep != nil {
		opts = append(opts, tempprint.WithSep(*pr.Sep))
	}
	if pr.End != "" {
		opts = append(opts, tempprint.WithEnd(pr.End))
	}
	durations := []struct {
		raw string
		opt func(time.Duration) tempprint.Option
	}{
		{pr.DisplayTime, tempprint.WithDisplayTime},
		{pr.Delay, tempprint.WithDelay},
		{pr.PostDelay, tempprint.WithPostDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, errBadDuration
		}
		opts = append(opts, d.opt(v))
	}
	if pr.Priority {
		opts = append(opts, tempprint.WithPriority())
	}
	if pr.Overwrite {
		opts = append(opts, tempprint.WithOverwrite())
	}
	if pr.Persistent {
		opts = append(opts, tempprint.Persistent())
	}
	return opts, nil
}

// PostPrint handles POST /print.
func (h *Handler) PostPrint(w http.ResponseWriter, r *http.Request) {
	if lifecycle.IsDraining() {
		writeError(w, r, http.StatusServiceUnavailable, "DRAINING", "Printer is draining and accepts no new prints")
		return
	}
	var body printRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
		return
	}
	values := body.Values
	if len(values) == 0 {
		if body.Text == "" {
			writeError(w, r, http.StatusBadRequest, "INVALID_PRINT", "text or values is required")
			return
		}
		values = []any{body.Text}
	}
	opts, err := body.options()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_DURATION", "display_time, delay and post_delay must be durations like \"1.5s\"")
		return
	}

	id, err := h.printer.Print(values, opts...)
	if err != nil {
		writePrintError(w, r, err)
		return
	}
	if logger := loggerFromRequest(r); logger != nil {
		logger.Debug("print accepted", zap.String("entry_id", id.String()))
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":      id.String(),
		"pending": h.printer.Pending(),
	})
}

func writePrintError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, validation.ErrControlChars):
		writeError(w, r, http.StatusBadRequest, "INVALID_TEXT", err.Error())
	case errors.Is(err, tempprint.ErrNoDisplayTime):
		writeError(w, r, http.StatusBadRequest, "NO_DISPLAY_TIME", err.Error())
	default:
		writeError(w, r, http.StatusBadRequest, "INVALID_PRINT", err.Error())
	}
}

// PostSkip handles POST /skip.
func (h *Handler) PostSkip(w http.ResponseWriter, r *http.Request) {
	running := h.printer.IsRunning()
	h.printer.Skip()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "skip",
		"running": running,
	})
}

// PostClear handles POST /clear. ?undisplay=true also skips the print on screen.
func (h *Handler) PostClear(w http.ResponseWriter, r *http.Request) {
	undisplay := false
	if v := r.URL.Query().Get("undisplay"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_QUERY", "undisplay must be a boolean")
			return
		}
		undisplay = b
	}
	dropped := h.printer.Pending()
	h.printer.Clear(undisplay)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"action":    "clear",
		"dropped":   dropped,
		"undisplay": undisplay,
	})
}

// PutSettings handles PUT /settings: {"display_time": "2s", "refresh_rate": "100ms"}.
// refresh_rate also takes "none" and "continuous". Omitted fields are left unchanged.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayTime *string `json:"display_time"`
		RefreshRate *string `json:"refresh_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
		return
	}
	if body.DisplayTime != nil {
		d, err := time.ParseDuration(*body.DisplayTime)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_DURATION", "display_time must be a duration like \"2s\"")
			return
		}
		if err := h.printer.SetDisplayTime(d); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_DISPLAY_TIME", err.Error())
			return
		}
	}
	if body.RefreshRate != nil {
		d, ok := config.ParseRefreshRate(*body.RefreshRate, h.printer.RefreshRate())
		if !ok {
			writeError(w, r, http.StatusBadRequest, "INVALID_DURATION", "refresh_rate must be a duration like \"100ms\", \"none\" or \"continuous\"")
			return
		}
		h.printer.SetRefreshRate(d)
	}
	h.GetStatus(w, r)
}

// GetStatus handles GET /status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":      h.printer.IsRunning(),
		"pending":      h.printer.Pending(),
		"visible":      h.printer.Visible(),
		"display_time": h.printer.DisplayTime().String(),
		"refresh_rate": h.printer.RefreshRate().String(),
	})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status, statusCode := "healthy", http.StatusOK
	if lifecycle.IsDraining() {
		status, statusCode = "draining", http.StatusServiceUnavailable
	}

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	printer := "idle"
	if h.printer.IsRunning() {
		printer = "busy"
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "tempprint",
		"version":   "dev",
		"checks":    map[string]string{"printer": printer},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationIDFromRequest(r),
		},
	})
}
