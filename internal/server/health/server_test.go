package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

func startBuf(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = s.Serve(ctx, lis); close(done) }()

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = cc.Close()
		cancel()
		<-done
		_ = lis.Close()
	})
	return healthpb.NewHealthClient(cc)
}

func check(t *testing.T, c healthpb.HealthClient, svc string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
	if err != nil {
		t.Fatalf("Check(%q): %v", svc, err)
	}
	return resp.GetStatus()
}

func TestServer_ReportsProbeStatus(t *testing.T) {
	var dbUp atomic.Bool
	s := New(zaptest.NewLogger(t), time.Hour, false,
		Probe{Name: "postgres", Check: func(context.Context) error {
			if !dbUp.Load() {
				return errors.New("db down")
			}
			return nil
		}},
		Probe{Name: "face-encoder", Check: func(context.Context) error { return nil }},
	)
	c := startBuf(t, s)

	if s.Refresh(context.Background()) {
		t.Fatal("Refresh must report failure")
	}
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("overall = %v", got)
	}
	if got := check(t, c, "postgres"); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("postgres = %v", got)
	}
	if got := check(t, c, "face-encoder"); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("face-encoder = %v", got)
	}

	dbUp.Store(true)
	if !s.Refresh(context.Background()) {
		t.Fatal("Refresh must report success")
	}
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("overall after recovery = %v", got)
	}

	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("unknown service: want NotFound, got %v", err)
	}
}

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

func TestLoggingUnary_Passthrough(t *testing.T) {
	t.Parallel()
	ic := LoggingUnary(zaptest.NewLogger(t), "/quiet.Svc/Check")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr{}})

	for _, m := range []string{"/quiet.Svc/Check", "/loud.Svc/Call"} {
		info := &grpc.UnaryServerInfo{FullMethod: m}
		resp, err := ic(ctx, "req", info, func(context.Context, any) (any, error) { return "ok", nil })
		if err != nil || resp != "ok" {
			t.Fatalf("%s: resp=%v err=%v", m, resp, err)
		}
	}

	wantErr := errors.New("boom")
	_, err := ic(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/x/y"}, func(context.Context, any) (any, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("want original error, got %v", err)
	}
}

func TestRecoverUnary(t *testing.T) {
	t.Parallel()
	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/x/Panic"}

	_, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { panic("oh no") })
	if st, ok := status.FromError(err); !ok || st.Code() != codes.Internal {
		t.Fatalf("want codes.Internal, got %v", err)
	}

	resp, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { return 42, nil })
	if err != nil || resp != 42 {
		t.Fatalf("passthrough: resp=%v err=%v", resp, err)
	}
}
