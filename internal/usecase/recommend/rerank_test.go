package recommend

import (
	"context"
	"strings"
	"testing"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/usecase/scoring"
)

func TestParseSelectedIDs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{"bare array", `["a", "b", "c"]`, []string{"a", "b", "c"}},
		{"array in prose", "Here are my picks:\n[\"x\", \"y\"]\nHope that helps!", []string{"x", "y"}},
		{"multiline array", "[\"one\",\n\"two\"]", []string{"one", "two"}},
		{"no array", "I could not decide.", nil},
		{"malformed array", `[not json at all`, nil},
		{"non-string elements", `[1, 2, 3]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSelectedIDs(ctx, tt.response)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("position %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildUserContext(t *testing.T) {
	profile := &domain.PreferenceProfile{
		PriceRange: &domain.PriceRange{Min: 1000, Max: 5000},
		Categories: []string{"イヤホン"},
		Brands:     []string{"Sony", "Anker"},
	}
	liked := []domain.LikedProduct{
		{Name: "Earbuds A"}, {Name: "Earbuds B"}, {Name: "Earbuds C"},
		{Name: "Earbuds D"}, {Name: "Earbuds E"}, {Name: "Earbuds F"},
	}

	got := buildUserContext(profile, liked)
	for _, want := range []string{"¥1000", "¥5000", "イヤホン", "Sony, Anker", "Earbuds A"} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Earbuds F") {
		t.Error("context should cap liked products at 5")
	}
}

func TestBuildUserContext_Empty(t *testing.T) {
	if got := buildUserContext(nil, nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

func TestBackfill(t *testing.T) {
	candidates := make([]scoring.Ranked, 20)
	for i := range candidates {
		candidates[i] = scoring.Ranked{Product: catalog(20)[i]}
	}

	// Reasoning returned 2 of 20; maxResults 5 needs 3 more in scorer order.
	selected := []domain.Product{candidates[7].Product, candidates[3].Product}
	got := backfill(selected, candidates, 5)

	if len(got) != 5 {
		t.Fatalf("expected 5 products, got %d", len(got))
	}
	if got[0].ID != "rakuten_7" || got[1].ID != "rakuten_3" {
		t.Errorf("selection order must come first: %s, %s", got[0].ID, got[1].ID)
	}
	for i, want := range []string{"rakuten_0", "rakuten_1", "rakuten_2"} {
		if got[2+i].ID != want {
			t.Errorf("backfill position %d: want %s, got %s", i, want, got[2+i].ID)
		}
	}

	seen := make(map[string]bool)
	for _, p := range got {
		if seen[p.ID] {
			t.Errorf("duplicate id %s in final list", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestBackfill_TruncatesLongSelection(t *testing.T) {
	products := catalog(10)
	candidates := make([]scoring.Ranked, 10)
	for i := range candidates {
		candidates[i] = scoring.Ranked{Product: products[i]}
	}
	got := backfill(products, candidates, 3)
	if len(got) != 3 {
		t.Errorf("expected truncation to 3, got %d", len(got))
	}
}

func TestRerank_SelectsAndPreservesReturnedOrder(t *testing.T) {
	svc, _, reasoner, history, _ := newTestService()
	history.countFn = func(_ context.Context, _ string) (int, error) { return 10, nil }
	reasoner.completeFn = func(_ context.Context, prompt, _ string, _ domain.CompletionOptions) (string, error) {
		if !strings.Contains(prompt, "ユーザーのリクエスト") {
			t.Error("select prompt missing query line")
		}
		return `["rakuten_2", "rakuten_0", "ghost_id"]`, nil
	}

	got := svc.rerank(context.Background(), catalog(6), "product", "user-1", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 products, got %d", len(got))
	}
	if got[0].ID != "rakuten_2" || got[1].ID != "rakuten_0" {
		t.Errorf("returned order not preserved: %s, %s", got[0].ID, got[1].ID)
	}
	// ghost_id dropped; third slot backfilled with the top unused candidate.
	if got[2].ID != "rakuten_1" {
		t.Errorf("expected backfill with rakuten_1, got %s", got[2].ID)
	}
}

func TestRerank_ReasonerFailureFallsBackToScorer(t *testing.T) {
	svc, _, reasoner, _, _ := newTestService()
	reasoner.completeFn = func(_ context.Context, _, _ string, _ domain.CompletionOptions) (string, error) {
		return "", domain.ErrReasoningFailure
	}

	got := svc.rerank(context.Background(), catalog(8), "product", "user-1", 5)
	if len(got) != 5 {
		t.Fatalf("fallback must still return min(maxResults, available), got %d", len(got))
	}
	// Deterministic order: catalog ratings descend with index.
	for i, p := range got {
		want := catalog(8)[i].ID
		if p.ID != want {
			t.Errorf("position %d: want %s, got %s", i, want, p.ID)
		}
	}
}

func TestRerank_CapsCandidateSet(t *testing.T) {
	svc, _, reasoner, _, _ := newTestService()
	var prompt string
	reasoner.completeFn = func(_ context.Context, p, _ string, _ domain.CompletionOptions) (string, error) {
		prompt = p
		return `[]`, nil
	}

	svc.rerank(context.Background(), catalog(50), "product", "user-1", 10)

	if strings.Contains(prompt, "rakuten_30") {
		t.Error("candidate list should be capped at 30")
	}
	if !strings.Contains(prompt, "rakuten_29") {
		t.Error("candidate list should include the 30th candidate")
	}
}

func TestRerank_MalformedSelectionBackfillsEverything(t *testing.T) {
	svc, _, reasoner, _, _ := newTestService()
	reasoner.completeFn = func(_ context.Context, _, _ string, _ domain.CompletionOptions) (string, error) {
		return "no json here", nil
	}

	got := svc.rerank(context.Background(), catalog(6), "product", "user-1", 4)
	if len(got) != 4 {
		t.Fatalf("empty selection should backfill to maxResults, got %d", len(got))
	}
	if got[0].ID != "rakuten_0" {
		t.Errorf("backfill should follow scorer order, got %s first", got[0].ID)
	}
}
