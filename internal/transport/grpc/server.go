package grpcx

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/rpccontract"
	"github.com/elderberry/agentops/internal/service"
)

// AgentLoggingServer is the structpb-typed surface of agentops.v1.AgentLogging.
// Every request is a Struct; list results are wrapped as {"items": [...]}.
type AgentLoggingServer interface {
	GetHealth(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartExecution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteExecution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordToolUsage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordMetric(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordError(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordSessionSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListExecutions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetExecution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListToolUsages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListErrors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type LoggingHandler struct {
	svc *service.LoggingService
}

func NewLoggingHandler(svc *service.LoggingService) *LoggingHandler {
	return &LoggingHandler{svc: svc}
}

type rpcMethod struct {
	name string
	call func(AgentLoggingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var rpcMethods = []rpcMethod{
	{"GetHealth", AgentLoggingServer.GetHealth},
	{"GetStats", AgentLoggingServer.GetStats},
	{"ExportState", AgentLoggingServer.ExportState},
	{"StartExecution", AgentLoggingServer.StartExecution},
	{"CompleteExecution", AgentLoggingServer.CompleteExecution},
	{"RecordToolUsage", AgentLoggingServer.RecordToolUsage},
	{"RecordMetric", AgentLoggingServer.RecordMetric},
	{"RecordError", AgentLoggingServer.RecordError},
	{"RecordSessionSummary", AgentLoggingServer.RecordSessionSummary},
	{"ListExecutions", AgentLoggingServer.ListExecutions},
	{"GetExecution", AgentLoggingServer.GetExecution},
	{"ListToolUsages", AgentLoggingServer.ListToolUsages},
	{"ListErrors", AgentLoggingServer.ListErrors},
	{"ListSessions", AgentLoggingServer.ListSessions},
}

func RegisterAgentLoggingServer(server grpc.ServiceRegistrar, handler AgentLoggingServer) {
	methods := make([]grpc.MethodDesc, 0, len(rpcMethods))
	for _, method := range rpcMethods {
		methods = append(methods, grpc.MethodDesc{MethodName: method.name, Handler: unaryHandler(method)})
	}
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: rpccontract.ServiceName,
		HandlerType: (*AgentLoggingServer)(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    "proto/agentops/v1/logging.proto",
	}, handler)
}

func unaryHandler(method rpcMethod) grpc.MethodHandler {
	fullMethod := "/" + rpccontract.ServiceName + "/" + method.name
	return func(
		srv any,
		ctx context.Context,
		decoder func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		request := new(structpb.Struct)
		if err := decoder(request); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method.call(srv.(AgentLoggingServer), ctx, request)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method.call(srv.(AgentLoggingServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, request, info, handler)
	}
}

func (h *LoggingHandler) GetHealth(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(h.svc.Health())
}

func (h *LoggingHandler) GetStats(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	stats, err := h.svc.Stats()
	if err != nil {
		return nil, err
	}
	return toStruct(stats)
}

func (h *LoggingHandler) ExportState(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	state, err := h.svc.ExportState()
	if err != nil {
		return nil, err
	}
	return toStruct(state)
}

func (h *LoggingHandler) StartExecution(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[service.StartExecutionRequest](request)
	if err != nil {
		return nil, err
	}
	created, err := h.svc.StartExecution(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(created)
}

func (h *LoggingHandler) CompleteExecution(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[service.CompleteExecutionRequest](request)
	if err != nil {
		return nil, err
	}
	updated, err := h.svc.CompleteExecution(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(updated)
}

func (h *LoggingHandler) RecordToolUsage(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[service.RecordToolUsageRequest](request)
	if err != nil {
		return nil, err
	}
	created, err := h.svc.RecordToolUsage(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(created)
}

func (h *LoggingHandler) RecordMetric(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[service.RecordMetricRequest](request)
	if err != nil {
		return nil, err
	}
	created, err := h.svc.RecordMetric(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(created)
}

func (h *LoggingHandler) RecordError(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[service.RecordErrorRequest](request)
	if err != nil {
		return nil, err
	}
	created, err := h.svc.RecordError(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(created)
}

func (h *LoggingHandler) RecordSessionSummary(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[service.RecordSessionSummaryRequest](request)
	if err != nil {
		return nil, err
	}
	summary, err := h.svc.RecordSessionSummary(decoded)
	if err != nil {
		return nil, err
	}
	return toStruct(summary)
}

type listExecutionsRequest struct {
	SessionID     string `json:"session_id"`
	AgentName     string `json:"agent_name"`
	Status        string `json:"status"`
	StartedAfter  string `json:"started_after"`
	StartedBefore string `json:"started_before"`
	Limit         int64  `json:"limit"`
}

func (h *LoggingHandler) ListExecutions(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[listExecutionsRequest](request)
	if err != nil {
		return nil, err
	}
	items, err := h.svc.ListExecutions(domain.ExecutionFilter(decoded))
	if err != nil {
		return nil, err
	}
	return toItems(items)
}

type idRequest struct {
	ID          string `json:"id"`
	ExecutionID string `json:"execution_id"`
	Limit       int64  `json:"limit"`
}

func (h *LoggingHandler) GetExecution(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	id := decoded.ID
	if id == "" {
		id = decoded.ExecutionID
	}
	detail, err := h.svc.GetExecution(id)
	if err != nil {
		return nil, err
	}
	return toStruct(detail)
}

func (h *LoggingHandler) ListToolUsages(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	items, err := h.svc.ListToolUsages(decoded.ExecutionID)
	if err != nil {
		return nil, err
	}
	return toItems(items)
}

func (h *LoggingHandler) ListErrors(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	decoded, err := decodeStruct[idRequest](request)
	if err != nil {
		return nil, err
	}
	items, err := h.svc.ListErrors(decoded.Limit)
	if err != nil {
		return nil, err
	}
	return toItems(items)
}

func (h *LoggingHandler) ListSessions(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := h.svc.ListSessions()
	if err != nil {
		return nil, err
	}
	return toItems(items)
}

func toStruct(value any) (*structpb.Struct, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, domain.Internal("failed to encode response", err)
	}

	decoded := map[string]any{}
	if err := json.Unmarshal(serialized, &decoded); err != nil {
		return nil, domain.Internal("failed to shape response object", err)
	}
	result, err := structpb.NewStruct(decoded)
	if err != nil {
		return nil, domain.Internal("failed to convert response to protobuf struct", err)
	}
	return result, nil
}

func toItems(value any) (*structpb.Struct, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, domain.Internal("failed to encode response list", err)
	}

	decoded := []any{}
	if err := json.Unmarshal(serialized, &decoded); err != nil {
		return nil, domain.Internal("failed to shape response list", err)
	}
	result, err := structpb.NewStruct(map[string]any{"items": decoded})
	if err != nil {
		return nil, domain.Internal("failed to convert response to protobuf list", err)
	}
	return result, nil
}

func decodeStruct[T any](input *structpb.Struct) (T, error) {
	var out T
	if input == nil {
		return out, nil
	}
	serialized, err := json.Marshal(input.AsMap())
	if err != nil {
		return out, domain.InvalidArgument("request payload could not be encoded")
	}
	if err := json.Unmarshal(serialized, &out); err != nil {
		return out, domain.InvalidArgument("request payload shape is invalid")
	}
	return out, nil
}
