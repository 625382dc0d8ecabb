package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/reward"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

const defaultSimTrials = 10000

type errResp struct {
	Err string `json:"err"`
}

type spinResp struct {
	Wheel   string            `json:"wheel"`
	Started bool              `json:"started"`
	Seq     uint64            `json:"seq"`
	Target  float64           `json:"target"`
	Charged int               `json:"charged"`
	Balance int               `json:"balance"`
	Result  *wheel.SpinResult `json:"result,omitempty"`
}

type cancelResp struct {
	Wheel    string `json:"wheel"`
	Canceled bool   `json:"canceled"`
	Balance  int    `json:"balance"`
}

type walletResp struct {
	Balance int `json:"balance"`
}

type Handler struct {
	svc *reward.Service
	log *zap.Logger
}

func NewHandler(svc *reward.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Routes builds the HTTP router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/wallet", h.handleWallet)
	r.Get("/wheels", h.handleList)
	r.Route("/wheels/{name}", func(r chi.Router) {
		r.Get("/", h.handleDescribe)
		r.Get("/state", h.handleState)
		r.Post("/spin", h.handleSpin)
		r.Post("/reset", h.handleReset)
		r.Post("/cancel", h.handleCancel)
		r.Get("/frames", h.handleFrames)
		r.Get("/simulate", h.handleSimulate)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (h *Handler) handleWallet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, walletResp{Balance: h.svc.Balance()})
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	names, err := h.svc.List()
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"wheels": names})
}

func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Describe(chi.URLParam(r, "name"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.State(chi.URLParam(r, "name"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// POST /wheels/{name}/spin[?wait=1]
func (h *Handler) handleSpin(w http.ResponseWriter, r *http.Request) {
	wait, _, msg := parseBool(r, "wait")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	tk, err := h.svc.Spin(chi.URLParam(r, "name"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	resp := spinResp{
		Wheel:   tk.Wheel,
		Started: tk.Started,
		Seq:     tk.Pending.Seq(),
		Target:  tk.Target,
		Charged: tk.Charged,
		Balance: tk.Balance,
	}
	if !wait {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}

	res, err := tk.Pending.Wait(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	resp.Result = &res
	resp.Balance = h.svc.Balance()
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.Reset(name); err != nil {
		h.writeErr(w, err)
		return
	}
	h.handleState(w, r)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ok, err := h.svc.Cancel(name)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResp{Wheel: name, Canceled: ok, Balance: h.svc.Balance()})
}

// GET /wheels/{name}/simulate?trials=&mode=&seed=&guarantee=&min_turns=
func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := reward.SimRequest{Trials: defaultSimTrials, Mode: r.URL.Query().Get("mode")}

	trials, ok, msg := parseInt(r, "trials")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	if ok {
		req.Trials = trials
	}
	seed, ok, msg := parseInt(r, "seed")
	if msg != "" || (ok && seed < 0) {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "invalid seed"})
		return
	}
	req.Seed = uint64(seed)
	g, ok, msg := parseInt(r, "guarantee")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	if ok {
		req.Guarantee = &g
	}
	turns, ok, msg := parseInt(r, "min_turns")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	if ok {
		req.MinTurns = &turns
	}

	rep, err := h.svc.Simulate(chi.URLParam(r, "name"), req)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidName), errors.Is(err, reward.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrWheelNotFound):
		return http.StatusNotFound
	case errors.Is(err, coins.ErrInsufficientCoins):
		return http.StatusPaymentRequired
	case errors.Is(err, wheel.ErrSpinCanceled):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseBool(r *http.Request, key string) (bool, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return false, false, ""
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false, fmt.Sprintf("invalid %s", key)
	}
	return v, true, ""
}
