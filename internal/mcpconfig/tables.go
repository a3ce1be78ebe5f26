package mcpconfig

// Symbolic MCP tool names. Agent, command and layer tables refer to tools by
// these names; Catalog resolves them to identifiers.
const (
	ToolSequentialThinking = "SEQUENTIAL_THINKING"
	ToolContext7           = "CONTEXT7"
	ToolFilesystem         = "FILESYSTEM"
	ToolMemory             = "MEMORY"
	ToolGitHub             = "GITHUB"
	ToolPlaywright         = "PLAYWRIGHT"
)

const (
	AgentClaudeGuide      = "CLAUDE_GUIDE"
	AgentDebug            = "DEBUG"
	AgentAPIDocumentation = "API_DOCUMENTATION"
	AgentTroubleshooting  = "TROUBLESHOOTING"
	AgentGoogleSEO        = "GOOGLE_SEO"
	AgentSecurityAudit    = "SECURITY_AUDIT"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// LayerOrder lists FSD layers from the top of the import graph to the bottom.
var LayerOrder = []string{"app", "pages", "widgets", "features", "entities", "shared"}

func builtinTools() map[string]string {
	return map[string]string{
		ToolSequentialThinking: "sequential-thinking",
		ToolContext7:           "context7",
		ToolFilesystem:         "filesystem",
		ToolMemory:             "memory",
		ToolGitHub:             "github",
	}
}

func builtinAgents() map[string]AgentProfile {
	return map[string]AgentProfile{
		AgentClaudeGuide: {
			Primary:     []string{ToolSequentialThinking, ToolContext7},
			Secondary:   []string{ToolMemory, ToolFilesystem},
			Specialty:   "architecture-guide",
			Description: "프로젝트 가이드라인과 FSD 아키텍처 설계를 안내합니다",
			UseCases:    []string{"FSD 구조 설계", "코드 리뷰", "아키텍처 의사결정"},
		},
		AgentDebug: {
			Primary:     []string{ToolSequentialThinking, ToolFilesystem},
			Secondary:   []string{ToolMemory},
			Specialty:   "debugging",
			Description: "에러 원인을 추적하고 재현 가능한 수정안을 제시합니다",
			UseCases:    []string{"에러 분석", "성능 병목 추적", "로그 분석"},
		},
		AgentAPIDocumentation: {
			Primary:     []string{ToolContext7, ToolFilesystem},
			Secondary:   []string{ToolGitHub},
			Specialty:   "api-documentation",
			Description: "REST API 계약과 클라이언트 타입 문서를 생성합니다",
			UseCases:    []string{"API 명세 작성", "엔드포인트 변경 추적", "타입 동기화"},
		},
		AgentTroubleshooting: {
			Primary:     []string{ToolMemory, ToolSequentialThinking},
			Secondary:   []string{ToolFilesystem, ToolGitHub},
			Specialty:   "troubleshooting",
			Description: "과거 이슈 패턴을 기억하고 해결 절차를 안내합니다",
			UseCases:    []string{"반복 이슈 진단", "장애 회고", "해결책 기록"},
		},
		AgentGoogleSEO: {
			Primary:     []string{ToolContext7},
			Secondary:   []string{ToolFilesystem},
			Specialty:   "seo",
			Description: "페이지 메타데이터와 검색 최적화를 점검합니다",
			UseCases:    []string{"메타 태그 점검", "구조화 데이터", "페이지 성능 지표"},
		},
		AgentSecurityAudit: {
			Primary:     []string{ToolSequentialThinking, ToolFilesystem},
			Secondary:   []string{ToolGitHub, ToolMemory},
			Specialty:   "security-audit",
			Description: "인증 흐름과 입력 검증의 보안 취약점을 감사합니다",
			UseCases:    []string{"인증/인가 점검", "의존성 취약점 검사", "민감 정보 노출 검사"},
		},
	}
}

func builtinCommands() map[string]CommandProfile {
	return map[string]CommandProfile{
		"/max": {
			Agents: []string{
				AgentClaudeGuide, AgentDebug, AgentAPIDocumentation,
				AgentTroubleshooting, AgentGoogleSEO, AgentSecurityAudit,
			},
			Tools:       []string{ToolSequentialThinking, ToolContext7, ToolFilesystem, ToolMemory, ToolGitHub},
			Parallel:    true,
			Priority:    PriorityCritical,
			Description: "모든 에이전트와 MCP 도구를 병렬로 투입합니다",
		},
		"/auto": {
			Agents:      []string{AgentClaudeGuide, AgentDebug, AgentAPIDocumentation},
			Tools:       []string{ToolSequentialThinking, ToolContext7, ToolFilesystem},
			Parallel:    true,
			Priority:    PriorityHigh,
			Description: "작업 유형을 분석해 필요한 에이전트를 자동 선택합니다",
		},
		"/smart": {
			Agents:      []string{AgentClaudeGuide, AgentTroubleshooting},
			Tools:       []string{ToolSequentialThinking, ToolMemory},
			Parallel:    false,
			Priority:    PriorityHigh,
			Description: "과거 기록을 참고해 단계적으로 문제를 해결합니다",
		},
		"/rapid": {
			Agents:      []string{AgentDebug},
			Tools:       []string{ToolFilesystem},
			Parallel:    false,
			Priority:    PriorityMedium,
			Description: "단일 에이전트로 빠르게 수정합니다",
		},
		"/deep": {
			Agents:      []string{AgentClaudeGuide, AgentSecurityAudit, AgentTroubleshooting},
			Tools:       []string{ToolSequentialThinking, ToolContext7, ToolMemory},
			Parallel:    false,
			Priority:    PriorityMedium,
			Description: "심층 분석을 순차적으로 수행합니다",
		},
		"/sync": {
			Agents:      []string{AgentAPIDocumentation, AgentGoogleSEO},
			Tools:       []string{ToolGitHub, ToolFilesystem, ToolMemory},
			Parallel:    true,
			Priority:    PriorityLow,
			Description: "문서와 저장소 상태를 동기화합니다",
		},
	}
}

func builtinLayers() map[string]LayerProfile {
	return map[string]LayerProfile{
		"app": {
			PrimaryAgent: AgentClaudeGuide,
			Tools:        []string{ToolSequentialThinking, ToolFilesystem},
			Focus:        []string{"전역 설정", "라우팅", "프로바이더 구성"},
			Description:  "애플리케이션 초기화와 전역 프로바이더",
		},
		"pages": {
			PrimaryAgent: AgentGoogleSEO,
			Tools:        []string{ToolContext7, ToolFilesystem},
			Focus:        []string{"페이지 조합", "SEO 메타데이터", "라우트 단위 코드 분할"},
			Description:  "라우트에 대응하는 페이지 조합",
		},
		"widgets": {
			PrimaryAgent: AgentClaudeGuide,
			Tools:        []string{ToolSequentialThinking, ToolContext7},
			Focus:        []string{"재사용성", "독립적인 UI 블록", "features/entities 조합"},
			Description:  "여러 페이지에서 재사용되는 복합 UI 블록",
		},
		"features": {
			PrimaryAgent: AgentDebug,
			Tools:        []string{ToolSequentialThinking, ToolFilesystem, ToolMemory},
			Focus:        []string{"사용자 시나리오", "비즈니스 로직 분리", "상태 관리"},
			Description:  "사용자에게 가치를 주는 상호작용 단위",
		},
		"entities": {
			PrimaryAgent: AgentAPIDocumentation,
			Tools:        []string{ToolContext7, ToolFilesystem},
			Focus:        []string{"도메인 모델", "API 타입 정의", "데이터 정규화"},
			Description:  "시설, 리뷰, 사용자 같은 비즈니스 엔티티",
		},
		"shared": {
			PrimaryAgent: AgentTroubleshooting,
			Tools:        []string{ToolFilesystem, ToolMemory},
			Focus:        []string{"공통 유틸리티", "UI 키트", "API 클라이언트"},
			Description:  "비즈니스 로직이 없는 공통 인프라",
		},
	}
}

// builtinRules lets every layer import the layers strictly below it.
func builtinRules() map[string][]string {
	rules := make(map[string][]string, len(LayerOrder))
	for i, layer := range LayerOrder {
		rules[layer] = append([]string{}, LayerOrder[i+1:]...)
	}
	return rules
}
