package intent

import (
	"context"
	"strings"

	"skylark/opscommand/internal/models"
)

// HeuristicResolver routes messages with fixed substring rules and never
// calls the model. Rules are checked in order: roster, conflict, update.
type HeuristicResolver struct{}

func NewHeuristicResolver() *HeuristicResolver {
	return &HeuristicResolver{}
}

func (h *HeuristicResolver) Name() string {
	return StrategyHeuristic
}

func (h *HeuristicResolver) Resolve(_ context.Context, _ models.History, text string) (Resolution, error) {
	q := strings.ToLower(text)

	switch {
	case containsAny(q, "thermal", "skills", "available", "pilot"):
		return toolCall(models.ToolInvocation{
			Tool: models.ToolRoster,
			Arguments: models.ToolArguments{
				Skill:         ExtractSkill(q),
				OnlyAvailable: strings.Contains(q, "available"),
			},
		}), nil

	case containsAny(q, "free", "availability"):
		inv := models.ToolInvocation{
			Tool: models.ToolConflict,
			Arguments: models.ToolArguments{
				PilotID: ExtractPilotID(text),
				Date:    ExtractDate(text),
			},
		}
		var missing []string
		if inv.Arguments.PilotID == "" {
			missing = append(missing, "pilot_id")
		}
		if inv.Arguments.Date == "" {
			missing = append(missing, "date")
		}
		if len(missing) > 0 {
			return needMoreInfo(inv, missing, ""), nil
		}
		return toolCall(inv), nil

	case containsAny(q, "leave", "mark", "update"):
		inv := models.ToolInvocation{
			Tool:      models.ToolUpdate,
			Arguments: models.ToolArguments{PilotID: ExtractPilotID(text)},
		}
		if st, ok := ExtractStatus(q); ok {
			inv.Arguments.Status = st.String()
		}
		if missing := inv.MissingArguments(); len(missing) > 0 {
			return needMoreInfo(inv, missing, ""), nil
		}
		return toolCall(inv), nil
	}

	return Resolution{Kind: KindFallback}, nil
}

func toolCall(inv models.ToolInvocation) Resolution {
	return Resolution{Kind: KindToolCall, Invocation: &inv}
}

func needMoreInfo(inv models.ToolInvocation, missing []string, raw string) Resolution {
	return Resolution{
		Kind:           KindNeedMoreInfo,
		Invocation:     &inv,
		Missing:        missing,
		Reply:          needMoreInfoPrompt(inv.Tool, missing),
		RawModelOutput: raw,
	}
}
