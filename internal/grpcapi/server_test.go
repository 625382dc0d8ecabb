package grpcapi

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/reward"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

var testWheels = map[string]string{
	"default": `
spin:
  duration_ms: 30
  frame_ms: 2
cost:
  per_spin: 10
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
}

func dial(t *testing.T, balance int) *grpc.ClientConn {
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
		reward.WithSpinnerOptions(wheel.WithRandomSource(wheel.NewSeededRNG(11))),
	)

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(svc, log, grpc.WaitForHandlers(true))
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		svc.Shutdown()
	})
	return conn
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSpinWaitsForResult(t *testing.T) {
	c := NewClient(dial(t, 120))
	ctx := testContext(t)

	out, err := c.Spin(ctx, "jackpot", true)
	if err != nil {
		t.Fatal(err)
	}
	f := out.GetFields()
	if !f["started"].GetBoolValue() || f["charged"].GetNumberValue() != 10 {
		t.Fatalf("ticket = %v", out)
	}
	res := f["result"].GetStructValue().GetFields()
	if id := res["outcome"].GetStructValue().GetFields()["id"].GetStringValue(); id != "coins-20" {
		t.Fatalf("outcome id = %q", id)
	}
	if got := f["balance"].GetNumberValue(); got != 130 {
		t.Fatalf("balance = %v, want 130", got)
	}

	st, err := c.State(ctx, "jackpot")
	if err != nil {
		t.Fatal(err)
	}
	if p := st.GetFields()["phase"].GetStringValue(); p != "resolved" {
		t.Fatalf("phase = %q", p)
	}

	st, err = c.Reset(ctx, "jackpot")
	if err != nil {
		t.Fatal(err)
	}
	if p := st.GetFields()["phase"].GetStringValue(); p != "idle" {
		t.Fatalf("phase after reset = %q", p)
	}
}

func TestSpinWithoutWaitAndCancel(t *testing.T) {
	c := NewClient(dial(t, 120))
	ctx := testContext(t)

	out, err := c.Spin(ctx, "slow", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.GetFields()["result"]; ok {
		t.Fatalf("unexpected result in %v", out)
	}
	if got := out.GetFields()["balance"].GetNumberValue(); got != 110 {
		t.Fatalf("balance = %v, want 110", got)
	}

	out, err = c.Cancel(ctx, "slow")
	if err != nil {
		t.Fatal(err)
	}
	if !out.GetFields()["canceled"].GetBoolValue() || out.GetFields()["balance"].GetNumberValue() != 120 {
		t.Fatalf("cancel = %v", out)
	}
}

func TestErrorCodes(t *testing.T) {
	conn := dial(t, 5)
	c := NewClient(conn)
	ctx := testContext(t)

	cases := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"missing wheel field", func() error { _, err := c.State(ctx, ""); return err }, codes.InvalidArgument},
		{"bad name", func() error { _, err := c.State(ctx, "Bad Name"); return err }, codes.InvalidArgument},
		{"not found", func() error { _, err := c.State(ctx, "missing"); return err }, codes.NotFound},
		{"insufficient coins", func() error { _, err := c.Spin(ctx, "jackpot", true); return err }, codes.FailedPrecondition},
	}
	for _, tc := range cases {
		err := tc.call()
		if got := status.Code(err); got != tc.want {
			t.Errorf("%s: code %v, want %v (%v)", tc.name, got, tc.want, err)
		}
	}
}

func TestSpinDeadlineLeavesSpinRunning(t *testing.T) {
	c := NewClient(dial(t, 120))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Spin(ctx, "slow", true)
	if got := status.Code(err); got != codes.DeadlineExceeded {
		t.Fatalf("code = %v, want DeadlineExceeded", got)
	}

	st, err := c.State(testContext(t), "slow")
	if err != nil {
		t.Fatal(err)
	}
	if p := st.GetFields()["phase"].GetStringValue(); p != "spinning" {
		t.Fatalf("phase = %q, want spinning", p)
	}
}

func TestFramesStream(t *testing.T) {
	c := NewClient(dial(t, 120))
	ctx := testContext(t)

	if _, err := c.Spin(ctx, "jackpot", false); err != nil {
		t.Fatal(err)
	}
	stream, err := c.Frames(ctx, "jackpot", true)
	if err != nil {
		t.Fatal(err)
	}

	var msgs int
	var lastPhase string
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		f := msg.GetFields()
		if msgs == 0 {
			if _, ok := f["state"]; !ok {
				t.Fatalf("first message = %v, want state", msg)
			}
		}
		for _, key := range []string{"state", "frame"} {
			if v, ok := f[key]; ok {
				lastPhase = v.GetStructValue().GetFields()["phase"].GetStringValue()
			}
		}
		msgs++
	}
	if lastPhase != "resolved" {
		t.Fatalf("last phase = %q after %d messages", lastPhase, msgs)
	}
}

func TestHealth(t *testing.T) {
	conn := dial(t, 120)
	resp, err := healthpb.NewHealthClient(conn).Check(testContext(t), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}
