package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"skylark/opscommand/internal/llm"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/models"
)

// StructuredResolver asks the model to choose a tool. The completion is
// untrusted: anything that is not a JSON object naming a known tool is
// treated as a plain reply.
type StructuredResolver struct {
	client llm.Client
}

func NewStructuredResolver(client llm.Client) *StructuredResolver {
	return &StructuredResolver{client: client}
}

func (s *StructuredResolver) Name() string {
	return StrategyStructured
}

func (s *StructuredResolver) Resolve(ctx context.Context, history models.History, text string) (Resolution, error) {
	messages := history.Messages
	if len(messages) == 0 || messages[0].Role != models.RoleSystem {
		messages = append([]models.Message{{Role: models.RoleSystem, Content: SystemPrompt}}, messages...)
	}

	raw, err := s.client.Complete(ctx, messages)
	if err != nil {
		return Resolution{}, fmt.Errorf("intent model call failed: %w", err)
	}

	inv, ok := ParseToolCall(raw)
	if !ok {
		return Resolution{Kind: KindDirectReply, Reply: raw, RawModelOutput: raw}, nil
	}

	applyKeywordOverrides(&inv, text)

	if missing := inv.MissingArguments(); len(missing) > 0 {
		logging.Debug("Model tool call missing arguments", "tool", string(inv.Tool), "missing", missing)
		return needMoreInfo(inv, missing, raw), nil
	}

	res := toolCall(inv)
	res.RawModelOutput = raw
	return res, nil
}

type rawToolCall struct {
	Tool      json.RawMessage            `json:"tool"`
	Arguments map[string]json.RawMessage `json:"arguments"`
}

// ParseToolCall validates a completion as {"tool": ..., "arguments": {...}}.
// A surrounding markdown code fence is tolerated.
func ParseToolCall(raw string) (models.ToolInvocation, bool) {
	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return models.ToolInvocation{}, false
	}

	var rc rawToolCall
	if err := json.Unmarshal([]byte(body), &rc); err != nil {
		// "arguments" of the wrong shape; retry reading only the tool name
		var nameOnly struct {
			Tool json.RawMessage `json:"tool"`
		}
		if json.Unmarshal([]byte(body), &nameOnly) != nil {
			return models.ToolInvocation{}, false
		}
		rc = rawToolCall{Tool: nameOnly.Tool}
	}
	if len(rc.Tool) == 0 {
		return models.ToolInvocation{}, false
	}

	var name string
	if err := json.Unmarshal(rc.Tool, &name); err != nil {
		return models.ToolInvocation{}, false
	}
	tool, err := models.ParseToolName(strings.TrimSpace(name))
	if err != nil {
		logging.Warn("Model named an unknown tool", "tool", name)
		return models.ToolInvocation{}, false
	}

	return models.ToolInvocation{Tool: tool, Arguments: decodeArguments(rc.Arguments)}, true
}

func decodeArguments(args map[string]json.RawMessage) models.ToolArguments {
	return models.ToolArguments{
		Skill:         stringArg(args["skill"]),
		OnlyAvailable: boolArg(args["only_available"]),
		PilotID:       strings.ToUpper(stringArg(args["pilot_id"])),
		Date:          stringArg(args["date"]),
		Status:        stringArg(args["status"]),
	}
}

// stringArg accepts JSON strings and numbers; null and other shapes read as empty
func stringArg(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// boolArg accepts true/false and the strings "true"/"false" (any case)
func boolArg(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

// applyKeywordOverrides lets values found in the user's own words win over
// model-supplied arguments.
func applyKeywordOverrides(inv *models.ToolInvocation, text string) {
	q := strings.ToLower(text)

	switch inv.Tool {
	case models.ToolRoster:
		if strings.Contains(q, "available") {
			inv.Arguments.OnlyAvailable = true
		}
		if skill := ExtractSkill(q); skill != "" {
			inv.Arguments.Skill = skill
		}
	case models.ToolConflict:
		if id := ExtractPilotID(text); id != "" {
			inv.Arguments.PilotID = id
		}
		if date := ExtractDate(text); date != "" {
			inv.Arguments.Date = date
		}
	case models.ToolUpdate:
		if id := ExtractPilotID(text); id != "" {
			inv.Arguments.PilotID = id
		}
		if st, ok := ExtractStatus(q); ok {
			inv.Arguments.Status = st.String()
		}
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop a language tag such as ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
