package rpccontract

const (
	ServiceName = "agentops.v1.AgentLogging"
)

const (
	MethodGetHealth            = "/" + ServiceName + "/GetHealth"
	MethodGetStats             = "/" + ServiceName + "/GetStats"
	MethodExportState          = "/" + ServiceName + "/ExportState"
	MethodStartExecution       = "/" + ServiceName + "/StartExecution"
	MethodCompleteExecution    = "/" + ServiceName + "/CompleteExecution"
	MethodRecordToolUsage      = "/" + ServiceName + "/RecordToolUsage"
	MethodRecordMetric         = "/" + ServiceName + "/RecordMetric"
	MethodRecordError          = "/" + ServiceName + "/RecordError"
	MethodRecordSessionSummary = "/" + ServiceName + "/RecordSessionSummary"
	MethodListExecutions       = "/" + ServiceName + "/ListExecutions"
	MethodGetExecution         = "/" + ServiceName + "/GetExecution"
	MethodListToolUsages       = "/" + ServiceName + "/ListToolUsages"
	MethodListErrors           = "/" + ServiceName + "/ListErrors"
	MethodListSessions         = "/" + ServiceName + "/ListSessions"
)

var WriteMethods = map[string]struct{}{
	MethodStartExecution:       {},
	MethodCompleteExecution:    {},
	MethodRecordToolUsage:      {},
	MethodRecordMetric:         {},
	MethodRecordError:          {},
	MethodRecordSessionSummary: {},
}

// TokenHeader is the metadata key carrying the shared write token.
const TokenHeader = "x-agentops-token"
