package analysis

import (
	"slices"
	"testing"

	"github.com/quantumflow/loremaster/internal/models"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name           string
		specialization string
		want           []string
	}{
		{
			name:           "stop word removed",
			specialization: "character creation and management",
			want:           []string{"character", "creation", "management"},
		},
		{
			name:           "commas and stop words",
			specialization: "towns, dungeons, and landmarks",
			want:           []string{"towns", "dungeons", "landmarks"},
		},
		{
			name:           "hyphen slash and parentheses split",
			specialization: "Location-based assets (maps/regions)",
			want:           []string{"location", "based", "assets", "maps", "regions"},
		},
		{
			name:           "duplicates keep first occurrence",
			specialization: "npc dialogue, NPC motives and npc_secrets",
			want:           []string{"npc", "dialogue", "motives", "secrets"},
		},
		{
			name:           "tabs and newlines",
			specialization: "lore\tand\nhistory",
			want:           []string{"lore", "history"},
		},
		{
			name:           "empty",
			specialization: "",
			want:           []string{},
		},
		{
			name:           "only stop words",
			specialization: "the and of with",
			want:           []string{},
		},
		{
			name:           "only delimiters",
			specialization: " -_,/() ",
			want:           []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.specialization)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.specialization, got, tt.want)
			}
		})
	}
}

func TestBuildTopicMap(t *testing.T) {
	tm := BuildTopicMap([]models.AgentDefinition{
		{Name: "lore", Specialization: "dragons, history and lore"},
		{Name: "combat", Specialization: "dragons and combat"},
		{Name: "silent", Specialization: ""},
	})

	if got := tm.Agents(); !slices.Equal(got, []string{"lore", "combat", "silent"}) {
		t.Errorf("Agents() = %v", got)
	}
	if got := tm.Keywords(); !slices.Equal(got, []string{"dragons", "history", "lore", "combat"}) {
		t.Errorf("Keywords() = %v", got)
	}
	if got := tm.AgentsFor("dragons"); !slices.Equal(got, []string{"lore", "combat"}) {
		t.Errorf("AgentsFor(dragons) = %v, want both agents", got)
	}
	if got := tm.KeywordsFor("silent"); len(got) != 0 {
		t.Errorf("KeywordsFor(silent) = %v, want empty", got)
	}
	if got := tm.TopicLabel("lore"); got != "dragons_history_lore" {
		t.Errorf("TopicLabel(lore) = %q", got)
	}
}

func TestBuildTopicMap_DuplicateAgentMergesKeywords(t *testing.T) {
	tm := BuildTopicMap([]models.AgentDefinition{
		{Name: "lore", Specialization: "history"},
		{Name: "lore", Specialization: "history and myths"},
	})

	if got := tm.Agents(); !slices.Equal(got, []string{"lore"}) {
		t.Errorf("Agents() = %v, want single entry", got)
	}
	if got := tm.KeywordsFor("lore"); !slices.Equal(got, []string{"history", "myths"}) {
		t.Errorf("KeywordsFor(lore) = %v", got)
	}
	if got := tm.AgentsFor("history"); !slices.Equal(got, []string{"lore"}) {
		t.Errorf("AgentsFor(history) = %v, want no duplicate", got)
	}
}

func TestTopicMap_Empty(t *testing.T) {
	var nilMap *TopicMap
	if !nilMap.Empty() {
		t.Error("nil map should be empty")
	}
	if !BuildTopicMap(nil).Empty() {
		t.Error("map without agents should be empty")
	}
	if BuildTopicMap(campaignAgents).Empty() {
		t.Error("campaign map should not be empty")
	}
}
