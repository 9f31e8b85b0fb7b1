package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type conceptPayload struct {
	CoreIdeas []string `json:"core_ideas"`
	Examples  []string `json:"examples,omitempty"`
}

func TestUnmarshalFlexible_Variants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "valid json object",
			input: `{"core_ideas":["Photosynthesis"]}`,
			want:  []string{"Photosynthesis"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{core_ideas: ['Photosynthesis', 'Respiration']}`,
			want:  []string{"Photosynthesis", "Respiration"},
		},
		{
			name:  "trailing comma",
			input: `{"core_ideas":["Photosynthesis",],}`,
			want:  []string{"Photosynthesis"},
		},
		{
			name:  "missing end bracket",
			input: `{"core_ideas":["Photosynthesis"]`,
			want:  []string{"Photosynthesis"},
		},
		{
			name:  "double encoded",
			input: `"{\"core_ideas\": [\"Photosynthesis\"]}"`,
			want:  []string{"Photosynthesis"},
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"core_ideas\": [\"Photosynthesis\"]}\n```",
			want:  []string{"Photosynthesis"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"core_ideas\": [\"Photosynthesis\"]\n}\n",
			want:  []string{"Photosynthesis"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got conceptPayload
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if strings.Join(got.CoreIdeas, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("UnmarshalFlexible() got = %v, want %v", got.CoreIdeas, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got conceptPayload
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(&conceptPayload{})
	raw, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, `"core_ideas"`) {
		t.Fatalf("schema is missing core_ideas: %s", s)
	}
	if strings.Contains(s, `"$ref"`) {
		t.Fatalf("schema should be inlined: %s", s)
	}
}
