package services

import (
	"errors"
	"reflect"
	"testing"

	"reddit_intent/models"
)

func assess(c models.Category, conf float64) *models.IntentAssessment {
	return &models.IntentAssessment{Category: c, Confidence: conf}
}

func mustThreshold(t *testing.T, minIntent string, minConf float64) models.IntentThreshold {
	t.Helper()
	th, err := models.NewThreshold(minIntent, minConf)
	if err != nil {
		t.Fatal(err)
	}
	return th
}

func assessedTree() []models.ContentNode {
	return []models.ContentNode{
		{
			ID: "p1", Assessment: assess(models.CategoryLow, 0.9),
			Comments: []models.ContentNode{
				{ID: "c1", Assessment: assess(models.CategoryHigh, 0.8)},
				{ID: "c2", Assessment: assess(models.CategoryLow, 0.9)},
			},
		},
		{ID: "p2", Assessment: assess(models.CategoryHigh, 0.95)},
		{ID: "p3", Assessment: assess(models.CategoryMedium, 0.7),
			Comments: []models.ContentNode{{ID: "c3", Assessment: assess(models.CategoryHigh, 0.6)}},
		},
		{ID: "p4"},
	}
}

func ids(posts []models.ContentNode) []string {
	var out []string
	for _, p := range posts {
		out = append(out, p.ID)
		for _, c := range p.Comments {
			out = append(out, p.ID+"/"+c.ID)
		}
	}
	return out
}

func TestFilterTreeKeepsPostForQualifyingComment(t *testing.T) {
	t.Parallel()

	posts := []models.ContentNode{{
		ID: "p", Assessment: assess(models.CategoryLow, 0.9),
		Comments: []models.ContentNode{{ID: "c", Assessment: assess(models.CategoryHigh, 0.8)}},
	}}

	out, err := FilterTree(posts, mustThreshold(t, "HIGH", 0.7))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || len(out[0].Comments) != 1 || out[0].Comments[0].ID != "c" {
		t.Fatalf("got %v", ids(out))
	}
	if out[0].Assessment.Category != models.CategoryLow {
		t.Error("post assessment should be kept unchanged")
	}
}

func TestFilterTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minIntent string
		minConf   float64
		want      []string
	}{
		{"HIGH", 0.7, []string{"p1", "p1/c1", "p2"}},
		{"HIGH", 0.5, []string{"p1", "p1/c1", "p2", "p3", "p3/c3"}},
		{"MEDIUM", 0.7, []string{"p1", "p1/c1", "p2", "p3"}},
		{"LOW", 0.0, []string{"p1", "p1/c1", "p1/c2", "p2", "p3", "p3/c3"}},
		{"HIGH", 1.0, nil},
	}

	for _, tt := range tests {
		out, err := FilterTree(assessedTree(), mustThreshold(t, tt.minIntent, tt.minConf))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(out), tt.want) {
			t.Errorf("%s/%v: got %v, want %v", tt.minIntent, tt.minConf, ids(out), tt.want)
		}
		if out == nil {
			t.Errorf("%s/%v: result should be an empty slice, not nil", tt.minIntent, tt.minConf)
		}
	}
}

func TestFilterTreeIdempotent(t *testing.T) {
	t.Parallel()

	th := mustThreshold(t, "MEDIUM", 0.6)
	once, err := FilterTree(assessedTree(), th)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := FilterTree(once, th)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("once %v, twice %v", ids(once), ids(twice))
	}
}

func TestFilterTreeMonotonic(t *testing.T) {
	t.Parallel()

	strict, _ := FilterTree(assessedTree(), mustThreshold(t, "HIGH", 0.8))
	loose, _ := FilterTree(assessedTree(), mustThreshold(t, "MEDIUM", 0.5))

	kept := make(map[string]bool)
	for _, id := range ids(loose) {
		kept[id] = true
	}
	for _, id := range ids(strict) {
		if !kept[id] {
			t.Errorf("%s kept under the stricter threshold but dropped under the looser one", id)
		}
	}
}

func TestFilterTreeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	posts := assessedTree()
	if _, err := FilterTree(posts, mustThreshold(t, "HIGH", 0.7)); err != nil {
		t.Fatal(err)
	}
	if len(posts[0].Comments) != 2 {
		t.Error("input comments were modified")
	}
}

func TestFilterTreeInvalidThreshold(t *testing.T) {
	t.Parallel()

	for _, th := range []models.IntentThreshold{
		{MinCategory: models.CategoryNone, MinConfidence: 0.5},
		{MinCategory: models.CategoryHigh, MinConfidence: 1.5},
		{MinCategory: models.Category(9), MinConfidence: 0.5},
	} {
		if _, err := FilterTree(assessedTree(), th); !errors.Is(err, models.ErrInvalidThreshold) {
			t.Errorf("FilterTree(%+v) err = %v", th, err)
		}
	}
}

func TestCountQualifying(t *testing.T) {
	t.Parallel()

	if n := CountQualifying(assessedTree(), mustThreshold(t, "HIGH", 0.7)); n != 2 {
		t.Errorf("CountQualifying = %d, want 2", n)
	}
}
