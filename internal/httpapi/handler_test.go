package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/reward"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

var testWheels = map[string]string{
	"default": `
version: "1"
spin:
  duration_ms: 30
  frame_ms: 2
cost:
  per_spin: 10
  per_bundle: 90
  bundle_size: 10
`,
	"jackpot": `
outcomes:
  - {id: coins-20, label: 20 Coins, coins: 20}
`,
	"slow": `
spin:
  duration_ms: 10000
outcomes:
  - {id: coins-5, label: 5 Coins, coins: 5}
  - {id: try-again, label: Try Again, blank: true}
`,
	"rewards": `
outcomes:
  - {id: coins-5, label: 5 Coins, coins: 5}
  - {id: coins-10, label: 10 Coins, coins: 10}
  - {id: coins-20, label: 20 Coins, coins: 20}
  - {id: try-again, label: Try Again, blank: true, weight: 2}
`,
}

func newServer(t *testing.T, balance int) (*httptest.Server, *reward.Service) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "wheels"), 0o755); err != nil {
		t.Fatal(err)
	}
	loader := catalog.NewLoader(dir)
	for name, body := range testWheels {
		if err := os.WriteFile(loader.Paths().WheelPath(name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	log := zaptest.NewLogger(t)
	svc := reward.New(loader, coins.NewWallet(balance),
		reward.WithLogger(log),
		reward.WithSpinnerOptions(wheel.WithRandomSource(wheel.NewSeededRNG(7))),
	)
	srv := httptest.NewServer(NewHandler(svc, log).Routes())
	t.Cleanup(func() {
		srv.Close()
		svc.Shutdown()
	})
	return srv, svc
}

func do(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndWallet(t *testing.T) {
	srv, _ := newServer(t, 120)

	if code := do(t, http.MethodGet, srv.URL+"/healthz", nil); code != http.StatusOK {
		t.Fatalf("healthz status %d", code)
	}
	var w walletResp
	if code := do(t, http.MethodGet, srv.URL+"/wallet", &w); code != http.StatusOK || w.Balance != 120 {
		t.Fatalf("wallet: status %d balance %d", code, w.Balance)
	}
}

func TestListWheels(t *testing.T) {
	srv, _ := newServer(t, 120)
	var body map[string][]string
	if code := do(t, http.MethodGet, srv.URL+"/wheels", &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if got := strings.Join(body["wheels"], ","); got != "jackpot,rewards,slow" {
		t.Fatalf("wheels = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	srv, _ := newServer(t, 120)
	var v struct {
		Mode   string         `json:"mode"`
		Quotes map[string]int `json:"quotes"`
		Slices []struct {
			ID          string  `json:"id"`
			Probability float64 `json:"probability"`
			Arc         struct {
				Start float64 `json:"start"`
				End   float64 `json:"end"`
			} `json:"arc"`
		} `json:"slices"`
	}
	if code := do(t, http.MethodGet, srv.URL+"/wheels/rewards", &v); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if v.Mode != "rotation" {
		t.Fatalf("mode = %q", v.Mode)
	}
	if v.Quotes["1"] != 10 || v.Quotes["10"] != 90 {
		t.Fatalf("quotes = %v", v.Quotes)
	}
	if len(v.Slices) != 4 || v.Slices[3].ID != "try-again" || v.Slices[3].Arc.End != 360 {
		t.Fatalf("slices = %+v", v.Slices)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv, _ := newServer(t, 5)
	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/wheels/missing", http.StatusNotFound},
		{http.MethodGet, "/wheels/Bad_Name", http.StatusBadRequest},
		{http.MethodPost, "/wheels/jackpot/spin", http.StatusPaymentRequired},
		{http.MethodPost, "/wheels/jackpot/spin?wait=maybe", http.StatusBadRequest},
		{http.MethodGet, "/wheels/rewards/simulate?trials=abc", http.StatusBadRequest},
		{http.MethodGet, "/wheels/rewards/simulate?trials=0", http.StatusBadRequest},
		{http.MethodGet, "/wheels/rewards/simulate?mode=bogus", http.StatusBadRequest},
		{http.MethodGet, "/wheels/rewards/simulate?seed=-1", http.StatusBadRequest},
		{http.MethodGet, "/wheels/rewards/simulate?min_turns=0", http.StatusBadRequest},
	}
	for _, c := range cases {
		var e errResp
		code := do(t, c.method, srv.URL+c.path, &e)
		if code != c.want {
			t.Errorf("%s %s: status %d, want %d (%s)", c.method, c.path, code, c.want, e.Err)
		}
		if e.Err == "" {
			t.Errorf("%s %s: empty error body", c.method, c.path)
		}
	}
}

func TestSpinAndWait(t *testing.T) {
	srv, _ := newServer(t, 120)
	var r spinResp
	if code := do(t, http.MethodPost, srv.URL+"/wheels/jackpot/spin?wait=1", &r); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !r.Started || r.Charged != 10 || r.Seq != 1 {
		t.Fatalf("ticket = %+v", r)
	}
	if r.Result == nil || r.Result.Outcome.ID != "coins-20" {
		t.Fatalf("result = %+v", r.Result)
	}
	if r.Balance != 130 {
		t.Fatalf("balance = %d, want 130", r.Balance)
	}

	var st struct {
		Phase      wheel.Phase       `json:"phase"`
		LastResult *wheel.SpinResult `json:"last_result"`
		Balance    int               `json:"balance"`
	}
	if code := do(t, http.MethodGet, srv.URL+"/wheels/jackpot/state", &st); code != http.StatusOK {
		t.Fatalf("state status %d", code)
	}
	if st.Phase != wheel.Resolved || st.LastResult == nil || st.Balance != 130 {
		t.Fatalf("state = %+v", st)
	}

	var after struct {
		Phase      wheel.Phase       `json:"phase"`
		LastResult *wheel.SpinResult `json:"last_result"`
	}
	if code := do(t, http.MethodPost, srv.URL+"/wheels/jackpot/reset", &after); code != http.StatusOK {
		t.Fatalf("reset status %d", code)
	}
	if after.Phase != wheel.Idle || after.LastResult != nil {
		t.Fatalf("after reset = %+v", after)
	}
}

func TestSpinInFlightAndCancel(t *testing.T) {
	srv, _ := newServer(t, 120)

	var first, second spinResp
	if code := do(t, http.MethodPost, srv.URL+"/wheels/slow/spin", &first); code != http.StatusAccepted {
		t.Fatalf("status %d", code)
	}
	if code := do(t, http.MethodPost, srv.URL+"/wheels/slow/spin", &second); code != http.StatusAccepted {
		t.Fatalf("status %d", code)
	}
	if !first.Started || second.Started || second.Charged != 0 || second.Seq != first.Seq {
		t.Fatalf("first = %+v second = %+v", first, second)
	}
	if second.Target != first.Target {
		t.Fatalf("target changed: %v -> %v", first.Target, second.Target)
	}

	var c cancelResp
	if code := do(t, http.MethodPost, srv.URL+"/wheels/slow/cancel", &c); code != http.StatusOK {
		t.Fatalf("cancel status %d", code)
	}
	if !c.Canceled || c.Balance != 120 {
		t.Fatalf("cancel = %+v", c)
	}
	if code := do(t, http.MethodPost, srv.URL+"/wheels/slow/cancel", &c); code != http.StatusOK || c.Canceled {
		t.Fatalf("second cancel: status %d %+v", code, c)
	}
}

func TestSimulate(t *testing.T) {
	srv, _ := newServer(t, 120)
	var rep wheel.Report
	code := do(t, http.MethodGet, srv.URL+"/wheels/rewards/simulate?trials=20000&seed=3&mode=weighted", &rep)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if rep.Trials != 20000 || rep.Mode != wheel.ModeWeighted || len(rep.Frequencies) != 4 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.MaxDeviation > 0.02 {
		t.Fatalf("max deviation %.4f", rep.MaxDeviation)
	}
	if rep.SpinsToPrize == nil {
		t.Fatal("expected spins-to-prize stats for a wheel with blanks")
	}
}

func TestFramesStreamUntilResolved(t *testing.T) {
	srv, _ := newServer(t, 120)
	var r spinResp
	if code := do(t, http.MethodPost, srv.URL+"/wheels/jackpot/spin", &r); code != http.StatusAccepted {
		t.Fatalf("status %d", code)
	}

	resp, err := http.Get(srv.URL + "/wheels/jackpot/frames?until=resolved")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	events := strings.Split(strings.TrimSpace(string(body)), "\n\n")
	if !strings.HasPrefix(events[0], "event: state\n") {
		t.Fatalf("first event %q", events[0])
	}
	last := events[len(events)-1]
	if !strings.Contains(last, `"phase":"resolved"`) {
		t.Fatalf("last event %q", last)
	}
}

func TestFramesUnknownWheel(t *testing.T) {
	srv, _ := newServer(t, 120)
	var e errResp
	if code := do(t, http.MethodGet, srv.URL+"/wheels/missing/frames", &e); code != http.StatusNotFound {
		t.Fatalf("status %d", code)
	}
}
