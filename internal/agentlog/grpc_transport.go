package agentlog

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/elderberry/agentops/internal/rpccontract"
)

var eventMethods = map[string]string{
	EventExecutionStart:    rpccontract.MethodStartExecution,
	EventExecutionComplete: rpccontract.MethodCompleteExecution,
	EventToolUsage:         rpccontract.MethodRecordToolUsage,
	EventMetric:            rpccontract.MethodRecordMetric,
	EventError:             rpccontract.MethodRecordError,
	EventSessionSummary:    rpccontract.MethodRecordSessionSummary,
}

// GRPCTransport sends events as structpb unary calls to the logging server.
type GRPCTransport struct {
	conn          *grpc.ClientConn
	token         string
	requestTO     time.Duration
	retryAttempts int
	backoff       time.Duration
}

func NewGRPCTransport(cfg Config, extra ...grpc.DialOption) (*GRPCTransport, error) {
	addr := strings.TrimSpace(cfg.GRPCAddr)
	if addr == "" {
		return nil, fmt.Errorf("grpc log transport requires an address")
	}
	conn, err := Dial(addr, cfg.GRPCInsecure, extra...)
	if err != nil {
		return nil, err
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &GRPCTransport{
		conn:          conn,
		token:         strings.TrimSpace(cfg.Token),
		requestTO:     timeout,
		retryAttempts: max(1, cfg.RetryAttempts),
		backoff:       250 * time.Millisecond,
	}, nil
}

// Dial opens a client connection. Loopback addresses always use plaintext.
func Dial(addr string, plaintext bool, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	cred := grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}))
	if plaintext || strings.HasPrefix(addr, "127.0.0.1:") || strings.HasPrefix(addr, "localhost:") || strings.HasPrefix(addr, "passthrough:") {
		cred = grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	opts := append([]grpc.DialOption{
		cred,
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                25 * time.Second,
			Timeout:             6 * time.Second,
			PermitWithoutStream: true,
		}),
	}, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

func (g *GRPCTransport) Name() string { return ModeGRPC }

func (g *GRPCTransport) Send(ctx context.Context, event Event) error {
	method, ok := eventMethods[event.Kind]
	if !ok {
		return fmt.Errorf("no rpc method for event %q", event.Kind)
	}
	_, err := g.Invoke(ctx, method, event.Payload)
	return err
}

// Invoke calls method with payload as a structpb.Struct, retrying transient
// failures with linear backoff.
func (g *GRPCTransport) Invoke(ctx context.Context, method string, payload map[string]any) (map[string]any, error) {
	request, err := structpb.NewStruct(normalizePayload(payload))
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= g.retryAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.requestTO)
		callCtx = g.withAuth(callCtx)

		response := &structpb.Struct{}
		invokeErr := g.conn.Invoke(callCtx, method, request, response)
		cancel()
		if invokeErr == nil {
			return response.AsMap(), nil
		}
		lastErr = invokeErr
		if !isRetryable(invokeErr) || attempt == g.retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * g.backoff):
		}
	}
	return nil, lastErr
}

func (g *GRPCTransport) Close() error {
	if g == nil || g.conn == nil {
		return nil
	}
	return g.conn.Close()
}

func (g *GRPCTransport) withAuth(ctx context.Context) context.Context {
	if g.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, rpccontract.TokenHeader, g.token)
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// normalizePayload converts values structpb cannot encode directly.
func normalizePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case []string:
			items := make([]any, len(v))
			for i, item := range v {
				items[i] = item
			}
			out[key] = items
		case map[string]string:
			items := make(map[string]any, len(v))
			for k, item := range v {
				items[k] = item
			}
			out[key] = items
		case int:
			out[key] = int64(v)
		case time.Duration:
			out[key] = v.Milliseconds()
		case time.Time:
			out[key] = v.UTC().Format(time.RFC3339Nano)
		default:
			out[key] = value
		}
	}
	return out
}
