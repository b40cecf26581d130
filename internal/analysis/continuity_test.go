package analysis

import (
	"strings"
	"testing"

	"github.com/quantumflow/loremaster/internal/models"
)

func TestAssessActiveWorkflow(t *testing.T) {
	tm := BuildTopicMap(campaignAgents)

	tests := []struct {
		name       string
		mentions   int
		want       bool
		completion float64
		rec        Recommendation
	}{
		{"single mention", 1, false, 0, ""},
		{"two mentions", 2, true, 0.4, RecommendPreferCurrent},
		{"four mentions", 4, true, 0.8, RecommendMaintainCurrent},
		{"capped at complete", 7, true, 1.0, RecommendMaintainCurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msgs []models.Message
			for range tt.mentions {
				msgs = append(msgs, userMsg("explore the dungeons"))
			}
			msgs = append(msgs, userMsg("ok"))

			f, ok := assessActiveWorkflow(msgs, tm)
			if ok != tt.want {
				t.Fatalf("detected = %v, want %v", ok, tt.want)
			}
			if !ok {
				return
			}
			if f.CurrentStep != "dungeons" || f.Mentions != tt.mentions {
				t.Errorf("step %q mentions %d", f.CurrentStep, f.Mentions)
			}
			if f.Completion != tt.completion || f.Recommendation != tt.rec {
				t.Errorf("completion %v rec %s, want %v %s", f.Completion, f.Recommendation, tt.completion, tt.rec)
			}
		})
	}
}

func TestAssessKnowledgeBuildup(t *testing.T) {
	tests := []struct {
		name   string
		length int
		count  int
		want   bool
		level  KnowledgeLevel
		rec    Recommendation
	}{
		{"long replies", 600, 3, true, KnowledgeHigh, RecommendMaintainCurrent},
		{"medium replies", 300, 4, true, KnowledgeMedium, RecommendPreferCurrent},
		{"short replies", 50, 3, true, KnowledgeLow, RecommendPreferCurrent},
		{"exactly medium threshold", 200, 3, true, KnowledgeLow, RecommendPreferCurrent},
		{"too few replies", 600, 2, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msgs []models.Message
			for range tt.count {
				msgs = append(msgs, userMsg("go on"), assistantMsg(strings.Repeat("z", tt.length)))
			}

			f, ok := assessKnowledgeBuildup(msgs)
			if ok != tt.want {
				t.Fatalf("detected = %v, want %v", ok, tt.want)
			}
			if !ok {
				return
			}
			if f.Level != tt.level || f.Recommendation != tt.rec {
				t.Errorf("level %s rec %s, want %s %s", f.Level, f.Recommendation, tt.level, tt.rec)
			}
			if f.AverageLength != float64(tt.length) {
				t.Errorf("AverageLength = %v, want %d", f.AverageLength, tt.length)
			}
		})
	}
}

func TestAssessUserPreference(t *testing.T) {
	msgs := thread(
		assistantMsg("I prefer short answers"),
		userMsg("I'd like to continue with this"),
	)

	f, ok := assessUserPreference(msgs)
	if !ok {
		t.Fatal("expected a preference cue")
	}
	if f.Cue != "like" || f.Recommendation != RecommendPreferCurrent || f.Confidence != 0.9 {
		t.Errorf("got %+v", f)
	}

	if _, ok := assessUserPreference(thread(assistantMsg("continue?"), userMsg("yes"))); ok {
		t.Error("assistant messages should not count as user preference")
	}
}

func TestAssessContinuity_Order(t *testing.T) {
	tm := BuildTopicMap(campaignAgents)
	long := strings.Repeat("The dungeons are vast. ", 30)
	msgs := thread(
		userMsg("I prefer exploring dungeons"),
		assistantMsg(long),
		userMsg("continue"),
		assistantMsg(long),
		userMsg("more"),
		assistantMsg(long),
	)

	factors := AssessContinuity(msgs, tm)
	want := []FactorType{FactorActiveWorkflow, FactorKnowledgeBuildup, FactorUserPreference}
	if len(factors) != len(want) {
		t.Fatalf("got %d factors, want %d", len(factors), len(want))
	}
	for i, f := range factors {
		if f.Type() != want[i] {
			t.Errorf("factor %d = %s, want %s", i, f.Type(), want[i])
		}
	}
}
