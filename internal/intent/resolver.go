package intent

import (
	"context"
	"fmt"
	"strings"

	"skylark/opscommand/internal/llm"
	"skylark/opscommand/internal/models"
)

// Kind is the outcome of resolving one user message
type Kind string

const (
	// KindToolCall carries a validated invocation to execute
	KindToolCall Kind = "tool_call"
	// KindDirectReply carries text to show as-is
	KindDirectReply Kind = "direct_reply"
	// KindNeedMoreInfo carries a prompt asking for missing arguments
	KindNeedMoreInfo Kind = "need_more_info"
	// KindFallback means no rule matched; the model should answer freely
	KindFallback Kind = "fallback"
)

// Resolution is what a Resolver decided for one user message
type Resolution struct {
	Kind       Kind
	Invocation *models.ToolInvocation
	// Reply is the direct reply text or the need-more-info prompt
	Reply   string
	Missing []string
	// RawModelOutput is the unparsed completion when a model was consulted
	RawModelOutput string
}

// Resolver maps the newest user message to a Resolution. history already
// ends with the user message whose text is passed separately.
type Resolver interface {
	Resolve(ctx context.Context, history models.History, text string) (Resolution, error)
	Name() string
}

const (
	StrategyStructured = "structured"
	StrategyHeuristic  = "heuristic"
)

// New returns the resolver for strategy. The structured strategy needs a model client.
func New(strategy string, client llm.Client) (Resolver, error) {
	switch strategy {
	case StrategyStructured:
		if client == nil {
			return nil, fmt.Errorf("structured intent strategy needs a model client")
		}
		return NewStructuredResolver(client), nil
	case StrategyHeuristic, "":
		return NewHeuristicResolver(), nil
	default:
		return nil, fmt.Errorf("unknown intent strategy %q", strategy)
	}
}

// SystemPrompt instructs the model to answer with a tool call or plain text
const SystemPrompt = `You are Skylark Drone Operations AI, assisting operations staff with the drone pilot roster.

Decide whether a tool is needed.

If a tool is needed, respond ONLY with a JSON object and nothing else:

{"tool": "tool_name", "arguments": { }}

Available tools:

1. get_pilot_roster
   arguments: skill (string, optional), only_available (boolean, optional)

2. check_conflicts
   arguments: pilot_id (string, e.g. "P1"), date (string YYYY-MM-DD, optional)

3. update_pilot_status
   arguments: pilot_id (string), status (one of "Available", "On Leave", "Assigned", "Busy")

If no tool is needed, reply normally in text.

When you are given a tool result, summarise it for the user in a short, friendly answer. Keep any markdown table as is.`

func needMoreInfoPrompt(tool models.ToolName, missing []string) string {
	var parts []string
	for _, m := range missing {
		switch m {
		case "pilot_id":
			parts = append(parts, "the pilot ID (for example P1)")
		case "date":
			parts = append(parts, "the date as YYYY-MM-DD")
		case "status":
			parts = append(parts, "the new status (Available, On Leave, Assigned or Busy)")
		default:
			parts = append(parts, m)
		}
	}

	var action string
	switch tool {
	case models.ToolConflict:
		action = "check availability"
	case models.ToolUpdate:
		action = "update the status"
	default:
		action = "do that"
	}
	return fmt.Sprintf("I need more information to %s. Please include %s.", action, strings.Join(parts, " and "))
}
