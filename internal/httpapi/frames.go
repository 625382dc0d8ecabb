package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xtding233/reward-wheel/internal/wheel"
)

const frameBuffer = 64

// GET /wheels/{name}/frames[?until=resolved]
//
// Streams animation frames as server-sent events. The first event is the
// current state. With until=resolved the stream ends after the first frame
// that is not Spinning.
func (h *Handler) handleFrames(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	untilResolved := r.URL.Query().Get("until") == "resolved"

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errResp{Err: "streaming unsupported"})
		return
	}

	frames, stop, err := h.svc.Watch(name, frameBuffer)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer stop()

	st, err := h.svc.State(name)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "state", st); err != nil {
		return
	}
	flusher.Flush()
	if untilResolved && st.Phase != wheel.Spinning {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := writeEvent(w, "frame", f); err != nil {
				h.log.Debug("frame stream closed", zap.String("wheel", name), zap.Error(err))
				return
			}
			flusher.Flush()
			if untilResolved && f.Phase != wheel.Spinning {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
