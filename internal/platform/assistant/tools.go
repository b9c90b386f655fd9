package assistant

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const GuardianToolName = "guardian_check"

// GuardianTool is the safety assessment function the assistant may call
// during a conversation.
func GuardianTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        GuardianToolName,
			Description: "Assess user safety and determine if escalation is required",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"risk_level": {
						Type:        jsonschema.String,
						Enum:        []string{"low", "medium", "high"},
						Description: "Overall assessed risk level",
					},
					"cause": {
						Type:        jsonschema.String,
						Description: "Short description of what prompted the assessment",
					},
					"signals": {
						Type:        jsonschema.Array,
						Items:       &jsonschema.Definition{Type: jsonschema.String},
						Description: "Observed warning signals",
					},
					"urgency": {
						Type:        jsonschema.String,
						Enum:        []string{"none", "soon", "immediate"},
						Description: "How urgent the response should be",
					},
				},
				Required: []string{"risk_level", "cause"},
			},
		},
	}
}

func DefaultTools() []openai.Tool {
	return []openai.Tool{GuardianTool()}
}
