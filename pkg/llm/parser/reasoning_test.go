package parser

import "testing"

func TestSplitReasoning(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantReasoning string
		wantReply     string
	}{
		{
			name:      "no reasoning",
			raw:       `{"thought":"hi","response":"hello"}`,
			wantReply: `{"thought":"hi","response":"hello"}`,
		},
		{
			name:          "think block with braces",
			raw:           "<think>the page has {a: 1} in it, if x>3</think>\n{\"response\":\"done\"}",
			wantReasoning: "the page has {a: 1} in it, if x>3",
			wantReply:     `{"response":"done"}`,
		},
		{
			name:          "thinking tag variant",
			raw:           "<thinking>\nstep one\n</thinking>answer",
			wantReasoning: "step one",
			wantReply:     "answer",
		},
		{
			name:          "multiple blocks",
			raw:           "<think>a</think>mid<thinking>b</thinking>end",
			wantReasoning: "a\n\nb",
			wantReply:     "midend",
		},
		{
			name:      "unclosed block kept",
			raw:       "<think>never closed {\"response\":\"x\"}",
			wantReply: "<think>never closed {\"response\":\"x\"}",
		},
		{
			name:      "empty",
			raw:       "",
			wantReply: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasoning, reply := SplitReasoning(tt.raw)
			if reasoning != tt.wantReasoning {
				t.Errorf("reasoning = %q, want %q", reasoning, tt.wantReasoning)
			}
			if reply != tt.wantReply {
				t.Errorf("reply = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}
