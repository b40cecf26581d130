package analysis

import (
	"math"
	"slices"
	"testing"

	"github.com/quantumflow/loremaster/internal/models"
)

func TestExtractTopic(t *testing.T) {
	tm := BuildTopicMap(campaignAgents)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"character request", "Let's make a new character for the party", characterTopic},
		{"location request", "Describe the dungeons beneath the keep", locationTopic},
		{"rules request", "How does combat initiative work?", rulesTopic},
		{"case insensitive", "ROLL THE DICE", rulesTopic},
		{"no keyword", "hello there", GeneralTopic},
		{"higher score wins", "character creation inside the dungeons", characterTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTopic(userMsg(tt.content), tm); got != tt.want {
				t.Errorf("ExtractTopic(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestExtractTopic_TieGoesToFirstRegisteredAgent(t *testing.T) {
	tm := BuildTopicMap([]models.AgentDefinition{
		{Name: "lore", Specialization: "dragons lore"},
		{Name: "combat", Specialization: "dragons combat"},
	})

	if got := ExtractTopic(userMsg("dragons attack"), tm); got != "dragons_lore" {
		t.Errorf("tie: got %q, want dragons_lore", got)
	}
	if got := ExtractTopic(userMsg("combat with dragons"), tm); got != "dragons_combat" {
		t.Errorf("strict lead: got %q, want dragons_combat", got)
	}
}

func TestExtractTopic_TieGoesToFirstAgentToScore(t *testing.T) {
	// keyword order: sword, tactic, quest, riddle, undead
	tm := BuildTopicMap([]models.AgentDefinition{
		{Name: "tactics", Specialization: "sword tactic"},
		{Name: "quests", Specialization: "quest riddle"},
		{Name: "crypts", Specialization: "sword undead"},
	})

	// quests reaches 2 at "riddle" before crypts does at "undead", but
	// crypts scored on "sword" first.
	if got := ExtractTopic(userMsg("sword quest riddle undead"), tm); got != "sword_undead" {
		t.Errorf("got %q, want sword_undead", got)
	}
	if got := ExtractTopic(userMsg("quest riddle undead"), tm); got != "quest_riddle" {
		t.Errorf("strict lead: got %q, want quest_riddle", got)
	}
}

func TestExtractTopic_EmptyMap(t *testing.T) {
	if got := ExtractTopic(userMsg("character dungeons dice"), BuildTopicMap(nil)); got != GeneralTopic {
		t.Errorf("got %q, want %q", got, GeneralTopic)
	}
}

func TestAnalyzeTopicShifts(t *testing.T) {
	tm := BuildTopicMap(campaignAgents)
	msgs := thread(
		userMsg("the character sheet"),
		userMsg("the dungeons map"),
		userMsg("hello"),
		userMsg("roll the dice"),
		userMsg("roll the dice"),
	)

	shifts := AnalyzeTopicShifts(msgs, tm)
	if len(shifts) != 1 {
		t.Fatalf("got %d shifts, want 1: %+v", len(shifts), shifts)
	}

	s := shifts[0]
	if s.From != characterTopic || s.To != locationTopic || s.MessageIndex != 1 {
		t.Errorf("unexpected shift %+v", s)
	}
	// one shared word out of five
	if math.Abs(s.Confidence-0.8) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.8", s.Confidence)
	}
}

func TestTopicShiftConfidenceFloor(t *testing.T) {
	msgs := thread(userMsg("same words"), userMsg("same words"))
	shifts := topicShifts(msgs, []string{"a", "b"})
	if len(shifts) != 1 || shifts[0].Confidence != 0.1 {
		t.Errorf("got %+v, want single shift with confidence 0.1", shifts)
	}
}

func TestDominantTopics(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		want   []string
	}{
		{
			name:   "top three by count with first-seen tie break",
			topics: []string{"a", "b", "b", "c", "d", "d", "d", GeneralTopic, GeneralTopic, GeneralTopic, GeneralTopic},
			want:   []string{"d", "b", "a"},
		},
		{
			name:   "only general",
			topics: []string{GeneralTopic, GeneralTopic},
			want:   []string{},
		},
		{
			name:   "empty",
			topics: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dominantTopics(tt.topics)
			if got == nil || !slices.Equal(got, tt.want) {
				t.Errorf("dominantTopics() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTopicStability(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		want   float64
	}{
		{"empty window", nil, 1.0},
		{"all general", []string{GeneralTopic, GeneralTopic, GeneralTopic}, 1.0},
		{"single topic", []string{"a", "a", GeneralTopic}, 1.0},
		{"every message distinct", []string{"a", "b", "c", "d", "e"}, 0.1},
		{"two topics in ten", []string{"a", "b", "a", "a", "a", "a", "a", "a", "a", "a"}, 0.8},
		{"three topics in five", []string{"a", "b", "c", "a", "a"}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := topicStability(tt.topics); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("topicStability(%v) = %v, want %v", tt.topics, got, tt.want)
			}
		})
	}
}
