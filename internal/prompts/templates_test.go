package prompts

import (
	"strings"
	"testing"

	"notesrelay/internal/domain"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   domain.NoteCategory
		wantOK bool
	}{
		{name: "meeting", input: "meeting", want: domain.CategoryMeeting, wantOK: true},
		{name: "todo mixed case", input: " ToDo ", want: domain.CategoryTodo, wantOK: true},
		{name: "idea", input: "idea", want: domain.CategoryIdea, wantOK: true},
		{name: "general", input: "general", want: domain.CategoryGeneral, wantOK: true},
		{name: "unknown", input: "shopping", want: domain.CategoryGeneral, wantOK: false},
		{name: "empty", input: "", want: domain.CategoryGeneral, wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tpl, ok := Select(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if tpl.Category != tc.want {
				t.Fatalf("category = %q, want %q", tpl.Category, tc.want)
			}
		})
	}
}

func TestEveryCategoryHasTemplate(t *testing.T) {
	for _, c := range domain.Categories {
		tpl, ok := Select(string(c))
		if !ok {
			t.Fatalf("category %q not recognized", c)
		}
		if strings.Count(tpl.Instruction, TextSlot) != 1 {
			t.Fatalf("category %q instruction must contain exactly one slot", c)
		}
	}
}

func TestRender(t *testing.T) {
	tpl, _ := Select("idea")
	got := tpl.Render("solar powered bike lock")
	if strings.Contains(got, TextSlot) {
		t.Fatalf("slot not substituted: %q", got)
	}
	if !strings.HasSuffix(got, "solar powered bike lock") {
		t.Fatalf("rendered prompt = %q", got)
	}
}

func TestFallbackWrapsOriginalVerbatim(t *testing.T) {
	const text = "buy milk. call mom. 100% done {text}"
	for _, c := range domain.Categories {
		tpl, _ := Select(string(c))
		got := tpl.Fallback(text)
		if !strings.Contains(got, text) {
			t.Fatalf("%s fallback %q does not contain original text", c, got)
		}
	}
	todo, _ := Select("todo")
	if !strings.HasPrefix(todo.Fallback(text), "TO-DO LIST") {
		t.Fatalf("todo fallback has unexpected layout: %q", todo.Fallback(text))
	}
}

func TestLimitSuffix(t *testing.T) {
	got := LimitSuffix(&domain.LimitError{CurrentCount: 20, Limit: 20, Tier: domain.TierFree})
	if !strings.Contains(got, "20/20") || !strings.Contains(got, "free") {
		t.Fatalf("suffix = %q", got)
	}
}
