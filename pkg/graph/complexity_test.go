package graph

import (
	"errors"
	"testing"
)

func TestParseComplexity(t *testing.T) {
	tests := []struct {
		input   string
		want    Complexity
		wantErr bool
	}{
		{input: "Low", want: Low},
		{input: "medium", want: Medium},
		{input: " HIGH ", want: High},
		{input: "", want: Medium},
		{input: "extreme", want: Medium, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseComplexity(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownComplexity) {
					t.Fatalf("expected ErrUnknownComplexity, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseComplexity(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestComplexityTables(t *testing.T) {
	tests := []struct {
		c         Complexity
		threshold float64
		children  int
		name      string
	}{
		{c: Low, threshold: 0.65, children: 3, name: "Low"},
		{c: Medium, threshold: 0.75, children: 5, name: "Medium"},
		{c: High, threshold: 0.85, children: 8, name: "High"},
	}

	for _, tt := range tests {
		if got := tt.c.MergeThreshold(); got != tt.threshold {
			t.Fatalf("%s threshold = %v, want %v", tt.name, got, tt.threshold)
		}
		if got := tt.c.MaxChildren(); got != tt.children {
			t.Fatalf("%s max children = %d, want %d", tt.name, got, tt.children)
		}
		if got := tt.c.String(); got != tt.name {
			t.Fatalf("String() = %q, want %q", got, tt.name)
		}
	}
}

func TestStyle(t *testing.T) {
	root := Style("energy conversion", GroupCore, true)
	if root.Title != "Main Idea" || root.Size != 40 || root.Color != "#FF6B6B" || root.Shape != "ellipse" {
		t.Fatalf("unexpected root style: %+v", root)
	}

	tests := []struct {
		group Group
		title string
		size  int
		color string
	}{
		{group: GroupCore, title: "Core", size: 40, color: "#FCD5CE"},
		{group: GroupSupporting, title: "Supporting", size: 28, color: "#A2D2FF"},
		{group: GroupExample, title: "Example", size: 20, color: "#D4E5A9"},
	}
	for _, tt := range tests {
		n := Style("x", tt.group, false)
		if n.Title != tt.title || n.Size != tt.size || n.Color != tt.color || n.Shape != "box" {
			t.Fatalf("unexpected style for %s: %+v", tt.group, n)
		}
	}

	if GroupCore.Rank() <= GroupSupporting.Rank() || GroupSupporting.Rank() <= GroupExample.Rank() || GroupExample.Rank() <= GroupNone.Rank() {
		t.Fatal("group ranks must be strictly ordered core > supporting > example > none")
	}
}
