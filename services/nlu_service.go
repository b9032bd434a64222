package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gatepass-http-service/config"

	openai "github.com/sashabaranov/go-openai"
)

// Intent 命令解释器支持的意图
type Intent string

const (
	IntentApprove     Intent = "approve"
	IntentDeny        Intent = "deny"
	IntentCheckin     Intent = "checkin"
	IntentCheckout    Intent = "checkout"
	IntentListPending Intent = "list_pending"
	IntentListAll     Intent = "list_all"
	IntentUnknown     Intent = "unknown"
)

// Interpretation NLU解析结果。NLU只负责分类与实体抽取，
// 不保证正确性——后续的消歧与状态复核才是安全保障。
type Interpretation struct {
	Intent     Intent
	EntityText string // 访客姓名片段
	Reason     string // 拒绝原因（deny意图可选）
	ListStatus string // 列表意图的状态过滤
}

// InterfaceNLUService defines the NLU capability interface
type InterfaceNLUService interface {
	Interpret(ctx context.Context, text string) (*Interpretation, error)
}

// NewNLUService 根据配置选择NLU实现：
// 配置了API Key时走OpenAI兼容接口（如Groq），否则使用内置关键词解析
func NewNLUService(cfg *config.Config) InterfaceNLUService {
	if cfg.NLUAPIKey != "" {
		return newOpenAINLUService(cfg)
	}
	return &KeywordNLUService{}
}

// ── 关键词解析实现 ──────────────────────────────────────────

// KeywordNLUService 基于关键词/正则的本地意图解析，
// 不依赖外部服务，也用于测试
type KeywordNLUService struct{}

var (
	approvePattern  = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:approve|allow|accept)\s+(.+?)\s*$`)
	denyPattern     = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:deny|reject|decline)\s+(.+?)(?:\s+(?:because|reason:?)\s+(.+))?\s*$`)
	checkinPattern  = regexp.MustCompile(`(?i)^\s*(?:please\s+)?check[\s-]?in\s+(.+?)\s*$`)
	checkoutPattern = regexp.MustCompile(`(?i)^\s*(?:please\s+)?check[\s-]?out\s+(.+?)\s*$`)
	listPattern     = regexp.MustCompile(`(?i)\b(?:list|show|display|who)\b`)
)

// Interpret 按固定顺序匹配意图，均不匹配则返回unknown
func (s *KeywordNLUService) Interpret(ctx context.Context, text string) (*Interpretation, error) {
	// check in/out 必须先于 approve/deny 匹配，避免"check in"中的in被吞掉
	if m := checkinPattern.FindStringSubmatch(text); m != nil {
		return &Interpretation{Intent: IntentCheckin, EntityText: m[1]}, nil
	}
	if m := checkoutPattern.FindStringSubmatch(text); m != nil {
		return &Interpretation{Intent: IntentCheckout, EntityText: m[1]}, nil
	}
	if m := approvePattern.FindStringSubmatch(text); m != nil {
		return &Interpretation{Intent: IntentApprove, EntityText: m[1]}, nil
	}
	if m := denyPattern.FindStringSubmatch(text); m != nil {
		return &Interpretation{Intent: IntentDeny, EntityText: m[1], Reason: m[2]}, nil
	}

	lower := strings.ToLower(text)
	if listPattern.MatchString(text) && (strings.Contains(lower, "visitor") || strings.Contains(lower, "pending")) {
		if strings.Contains(lower, "pending") {
			return &Interpretation{Intent: IntentListPending, ListStatus: "pending"}, nil
		}
		return &Interpretation{Intent: IntentListAll, ListStatus: "all"}, nil
	}

	return &Interpretation{Intent: IntentUnknown}, nil
}

// ── OpenAI兼容实现 ──────────────────────────────────────────

// OpenAINLUService 通过OpenAI兼容的Chat Completions接口做意图分类，
// 使用function calling定义可用动作，模型未调用任何工具即视为unknown
type OpenAINLUService struct {
	client *openai.Client
	model  string
}

func newOpenAINLUService(cfg *config.Config) *OpenAINLUService {
	clientConfig := openai.DefaultConfig(cfg.NLUAPIKey)
	if cfg.NLUBaseURL != "" {
		clientConfig.BaseURL = cfg.NLUBaseURL
	}
	return &OpenAINLUService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.NLUModel,
	}
}

const nluSystemPrompt = `You are the command classifier of a community gate
management system. Map the user's instruction to exactly one of the provided
tools, or reply in plain text if no tool applies. Never call more than one
tool. Never invent a visitor name the user did not mention.`

// nluTools 与原动作一一对应的工具定义
var nluTools = []openai.Tool{
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "approve_visitor",
			Description: "Approve a pending visitor for entry",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"visitor_name": {"type": "string", "description": "Name of the visitor to approve"}
				},
				"required": ["visitor_name"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "deny_visitor",
			Description: "Deny a pending visitor",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"visitor_name": {"type": "string", "description": "Name of the visitor to deny"},
					"reason": {"type": "string", "description": "Reason for denial"}
				},
				"required": ["visitor_name"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "checkin_visitor",
			Description: "Check in an approved visitor",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"visitor_name": {"type": "string", "description": "Name of the visitor to check in"}
				},
				"required": ["visitor_name"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "checkout_visitor",
			Description: "Check out a checked-in visitor",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"visitor_name": {"type": "string", "description": "Name of the visitor to check out"}
				},
				"required": ["visitor_name"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "list_visitors",
			Description: "List visitors by status",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"status": {
						"type": "string",
						"description": "Filter by status",
						"enum": ["pending", "approved", "denied", "checked_in", "checked_out", "all"]
					}
				}
			}`),
		},
	},
}

// Interpret 调用模型做一次分类。模型输出只作为候选提案，
// 解析失败或未命中工具一律归为unknown，不向上抛错
func (s *OpenAINLUService) Interpret(ctx context.Context, text string) (*Interpretation, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: nluSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Tools:       nluTools,
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return nil, fmt.Errorf("NLU服务调用失败: %w", err)
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return &Interpretation{Intent: IntentUnknown}, nil
	}

	toolCall := resp.Choices[0].Message.ToolCalls[0]

	var args struct {
		VisitorName string `json:"visitor_name"`
		Reason      string `json:"reason"`
		Status      string `json:"status"`
	}
	if toolCall.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
			return &Interpretation{Intent: IntentUnknown}, nil
		}
	}

	switch toolCall.Function.Name {
	case "approve_visitor":
		return &Interpretation{Intent: IntentApprove, EntityText: args.VisitorName}, nil
	case "deny_visitor":
		return &Interpretation{Intent: IntentDeny, EntityText: args.VisitorName, Reason: args.Reason}, nil
	case "checkin_visitor":
		return &Interpretation{Intent: IntentCheckin, EntityText: args.VisitorName}, nil
	case "checkout_visitor":
		return &Interpretation{Intent: IntentCheckout, EntityText: args.VisitorName}, nil
	case "list_visitors":
		if args.Status == "pending" {
			return &Interpretation{Intent: IntentListPending, ListStatus: args.Status}, nil
		}
		return &Interpretation{Intent: IntentListAll, ListStatus: args.Status}, nil
	}

	return &Interpretation{Intent: IntentUnknown}, nil
}
