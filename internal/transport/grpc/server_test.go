package grpcx

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/elderberry/agentops/internal/agentlog"
	"github.com/elderberry/agentops/internal/rpccontract"
	"github.com/elderberry/agentops/internal/service"
	"github.com/elderberry/agentops/internal/store"
)

func startBufServer(t *testing.T, token string) *bufconn.Listener {
	t.Helper()

	logStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "agent-logs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := logStore.Load(); err != nil {
		t.Fatalf("load store: %v", err)
	}

	log := zap.NewNop()
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryUnaryInterceptor(log),
		LoggingUnaryInterceptor(log),
		ErrorUnaryInterceptor(),
		AuthUnaryInterceptor(token),
	))
	RegisterAgentLoggingServer(server, NewLoggingHandler(service.NewLoggingService(logStore, logStore.Path())))

	listener := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(func() {
		server.Stop()
		_ = logStore.Close()
	})
	return listener
}

func bufDialer(listener *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	})
}

func newBufTransport(t *testing.T, listener *bufconn.Listener, token string) *agentlog.GRPCTransport {
	t.Helper()
	transport, err := agentlog.NewGRPCTransport(agentlog.Config{
		Mode:           agentlog.ModeGRPC,
		GRPCAddr:       "passthrough:///bufnet",
		Token:          token,
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  1,
	}, bufDialer(listener))
	if err != nil {
		t.Fatalf("create transport: %v", err)
	}
	t.Cleanup(func() { _ = transport.Close() })
	return transport
}

func TestAgentLoggerRoundTripOverGRPC(t *testing.T) {
	listener := startBufServer(t, "secret")
	transport := newBufTransport(t, listener, "secret")

	logger := agentlog.New(agentlog.Config{Mode: agentlog.ModeGRPC}, agentlog.WithTransport(transport), agentlog.WithZap(zap.NewNop()))
	ctx := context.Background()
	executionID := logger.StartExecution(ctx, "DEBUG", "/debug", "trace a flaky test", []string{"SEQUENTIAL_THINKING", "CONTEXT7"})
	logger.LogToolUsage(ctx, executionID, "SEQUENTIAL_THINKING", "analyze", 120*time.Millisecond, true)
	logger.CompleteExecution(ctx, executionID, agentlog.Result{Success: true, Score: 0.8, Duration: 2 * time.Second, Summary: "found it"})
	logger.EndSession(ctx)

	listed, err := transport.Invoke(ctx, rpccontract.MethodListExecutions, map[string]any{"agent_name": "DEBUG"})
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	items, _ := listed["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one execution, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["id"] != executionID || first["status"] != "succeeded" {
		t.Fatalf("unexpected execution %#v", first)
	}

	detail, err := transport.Invoke(ctx, rpccontract.MethodGetExecution, map[string]any{"id": executionID})
	if err != nil {
		t.Fatalf("get execution: %v", err)
	}
	usages, _ := detail["tool_usages"].([]any)
	if len(usages) != 1 {
		t.Fatalf("expected one tool usage, got %d", len(usages))
	}

	sessions, err := transport.Invoke(ctx, rpccontract.MethodListSessions, nil)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if got, _ := sessions["items"].([]any); len(got) != 1 {
		t.Fatalf("expected one session summary, got %d", len(got))
	}

	stats, err := transport.Invoke(ctx, rpccontract.MethodGetStats, nil)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	counts := stats["counts"].(map[string]any)
	if counts["executions"] != float64(1) || counts["tool_usages"] != float64(1) {
		t.Fatalf("unexpected counts %#v", counts)
	}
}

func TestWriteWithoutTokenIsRejected(t *testing.T) {
	listener := startBufServer(t, "secret")
	transport := newBufTransport(t, listener, "")

	err := transport.Send(context.Background(), agentlog.Event{
		Kind:    agentlog.EventMetric,
		Payload: map[string]any{"agent_name": "DEBUG", "metric_name": "latency", "value": 1.5},
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	if _, err := transport.Invoke(context.Background(), rpccontract.MethodGetHealth, nil); err != nil {
		t.Fatalf("expected health to stay open, got %v", err)
	}
}

func TestDomainErrorsSurfaceAsStatusCodes(t *testing.T) {
	listener := startBufServer(t, "")
	transport := newBufTransport(t, listener, "")
	ctx := context.Background()

	_, err := transport.Invoke(ctx, rpccontract.MethodGetExecution, map[string]any{"id": "exec_missing"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	_, err = transport.Invoke(ctx, rpccontract.MethodStartExecution, map[string]any{"task_type": "/debug"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for missing agent, got %v", err)
	}

	_, err = transport.Invoke(ctx, rpccontract.MethodListExecutions, map[string]any{"status": "paused"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad status, got %v", err)
	}
}

func TestDecodeStructRejectsWrongShape(t *testing.T) {
	input, err := structpb.NewStruct(map[string]any{"duration_ms": "soon"})
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	if _, err := decodeStruct[service.CompleteExecutionRequest](input); err == nil {
		t.Fatalf("expected shape error")
	}
}
