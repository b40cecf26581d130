package analysis

import (
	"fmt"
	"time"

	"github.com/quantumflow/loremaster/internal/models"
)

var campaignAgents = []models.AgentDefinition{
	{Name: "character-agent", Specialization: "character creation and management"},
	{Name: "location-agent", Specialization: "location-based campaign assets like towns, dungeons, and landmarks"},
	{Name: "rules-agent", Specialization: "game rules, combat mechanics and dice"},
}

const (
	characterTopic = "character_creation_management"
	locationTopic  = "location_based_campaign_assets_towns_dungeons_landmarks"
	rulesTopic     = "game_rules_combat_mechanics_dice"
)

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func userMsg(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func assistantMsg(content string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: content}
}

// routedMsg is an assistant reply produced by agent
func routedMsg(agent, content string, success bool) models.Message {
	return models.Message{
		Role:    models.RoleAssistant,
		Content: content,
		RoutingMetadata: &models.RoutingMetadata{
			Decision: &models.RoutingDecision{
				TargetAgent: agent,
				Confidence:  0.9,
				Reasoning:   "keyword match",
			},
			ExecutionTime: 120,
			Success:       success,
		},
	}
}

// thread assigns ids and increasing timestamps
func thread(msgs ...models.Message) []models.Message {
	for i := range msgs {
		msgs[i].ID = fmt.Sprintf("msg-%d", i+1)
		msgs[i].CreatedAt = baseTime.Add(time.Duration(i) * time.Minute)
	}
	return msgs
}
