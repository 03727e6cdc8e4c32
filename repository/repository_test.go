package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reddit_intent/db"
	"reddit_intent/models"
)

// setupDB 为每个测试打开独立的 SQLite 文件
func setupDB(t *testing.T) {
	t.Helper()
	if err := db.InitSQLite(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("init sqlite: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
}

func sampleCycle(id string, start time.Time) *models.CycleResult {
	return &models.CycleResult{
		ID:                 id,
		StartTime:          start,
		EndTime:            start.Add(90 * time.Second),
		Subreddits:         []string{"gadgets", "buildapc"},
		MinIntent:          "HIGH",
		MinConfidence:      0.7,
		PostsScraped:       12,
		HighIntentContent:  3,
		ResponsesGenerated: 2,
	}
}

func TestSaveAndGetCycle(t *testing.T) {
	setupDB(t)

	start := time.UnixMilli(1700000000000)
	c := sampleCycle("cycle-1", start)
	if err := SaveCycle(c); err != nil {
		t.Fatal(err)
	}

	got, err := GetCycle("cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PostsScraped != 12 || got.HighIntentContent != 3 || got.MinIntent != "HIGH" || got.MinConfidence != 0.7 {
		t.Errorf("cycle = %+v", got)
	}
	if len(got.Subreddits) != 2 || got.Subreddits[1] != "buildapc" {
		t.Errorf("Subreddits = %v", got.Subreddits)
	}
	if got.DurationSeconds != 90 || !got.StartTime.Equal(start) {
		t.Errorf("timing = %v, %v", got.StartTime, got.DurationSeconds)
	}

	// 同一 id 再次保存时覆盖
	c.MessagesSent = 2
	c.Error = "partial failure"
	if err := SaveCycle(c); err != nil {
		t.Fatal(err)
	}
	got, _ = GetCycle("cycle-1")
	if got.MessagesSent != 2 || got.Error != "partial failure" {
		t.Errorf("after update = %+v", got)
	}

	if _, err := GetCycle("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetCycle(missing) err = %v", err)
	}
}

func TestListCycles(t *testing.T) {
	setupDB(t)

	base := time.UnixMilli(1700000000000)
	for i, id := range []string{"a", "b", "c"} {
		if err := SaveCycle(sampleCycle(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	cycles, err := ListCycles(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 2 || cycles[0].ID != "c" || cycles[1].ID != "b" {
		t.Errorf("cycles = %+v", cycles)
	}

	all, _ := ListCycles(0)
	if len(all) != 3 {
		t.Errorf("ListCycles(0) returned %d", len(all))
	}
}

func TestSaveAndListResponses(t *testing.T) {
	setupDB(t)

	created := time.UnixMilli(1700000000000)
	responses := []models.ResponseRecord{
		{ID: "r1", SourceID: "p1", Author: "alice", Subreddit: "gadgets", ContentKind: models.KindPost, Category: models.CategoryHigh,
			Subject: "Hi", Message: "Hello", ProductsServices: []string{"laptop"}, IncludeResources: true, Sent: true, CreatedAt: created},
		{ID: "r2", SourceID: "c1", Author: "bob", ContentKind: models.KindComment, Category: models.CategoryMedium,
			Subject: "Hey", Message: "", CreatedAt: created},
	}
	if err := SaveResponses("cycle-1", responses); err != nil {
		t.Fatal(err)
	}
	later := []models.ResponseRecord{{ID: "r3", SourceID: "p9", Author: "carol", ContentKind: models.KindPost, Category: models.CategoryLow, CreatedAt: created.Add(time.Hour)}}
	if err := SaveResponses("cycle-2", later); err != nil {
		t.Fatal(err)
	}

	got, err := ListResponses("cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r2" {
		t.Fatalf("responses = %+v", got)
	}
	r1 := got[0]
	if r1.CycleID != "cycle-1" || r1.Category != models.CategoryHigh || r1.ContentKind != models.KindPost || !r1.Sent || !r1.IncludeResources {
		t.Errorf("r1 = %+v", r1)
	}
	if len(r1.ProductsServices) != 1 || r1.ProductsServices[0] != "laptop" || !r1.CreatedAt.Equal(created) {
		t.Errorf("r1 = %+v", r1)
	}
	if got[1].ProductsServices == nil || got[1].Sent {
		t.Errorf("r2 = %+v", got[1])
	}

	latest, err := ListResponses("")
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 || latest[0].ID != "r3" {
		t.Errorf("latest = %+v", latest)
	}
}

func TestResponseProductsNeverNull(t *testing.T) {
	setupDB(t)

	created := time.UnixMilli(1700000000000)
	responses := []models.ResponseRecord{
		{ID: "r1", SourceID: "p1", Author: "alice", ContentKind: models.KindPost, CreatedAt: created},
		{ID: "r2", SourceID: "p2", Author: "bob", ContentKind: models.KindPost, CreatedAt: created},
		{ID: "r3", SourceID: "p3", Author: "carol", ContentKind: models.KindPost, CreatedAt: created},
	}
	if err := SaveResponses("cycle-1", responses); err != nil {
		t.Fatal(err)
	}

	var stored string
	if err := db.DB.QueryRow(`SELECT products_services FROM intent_responses WHERE id = ?`, "r1").Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if stored != "[]" {
		t.Errorf("stored products = %q, want []", stored)
	}

	// 旧数据中的 null 与损坏的 JSON 都读成空列表
	if _, err := db.DB.Exec(`UPDATE intent_responses SET products_services = 'null' WHERE id = ?`, "r2"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.DB.Exec(`UPDATE intent_responses SET products_services = '{broken' WHERE id = ?`, "r3"); err != nil {
		t.Fatal(err)
	}

	got, err := ListResponses("cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range got {
		if r.ProductsServices == nil || len(r.ProductsServices) != 0 {
			t.Errorf("%s products = %#v, want empty non-nil", r.ID, r.ProductsServices)
		}
	}

	b, err := json.Marshal(got[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"products_services":[]`) {
		t.Errorf("json = %s", b)
	}
}

func TestListResponsesEmpty(t *testing.T) {
	setupDB(t)

	got, err := ListResponses("")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v", got)
	}
}

func TestMarkResponseSent(t *testing.T) {
	setupDB(t)

	if err := SaveResponses("cycle-1", []models.ResponseRecord{{ID: "r1", SourceID: "p1", Author: "alice", ContentKind: models.KindPost, CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	updated, err := MarkResponseSent("r1")
	if err != nil || !updated {
		t.Fatalf("MarkResponseSent = %v, %v", updated, err)
	}
	updated, _ = MarkResponseSent("r1")
	if updated {
		t.Error("second mark should not update")
	}

	r, err := GetResponse("r1")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Sent {
		t.Error("response should be marked sent")
	}
	if _, err := GetResponse("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetResponse(missing) err = %v", err)
	}
}

func TestPromptTemplates(t *testing.T) {
	setupDB(t)

	if _, err := GetPromptTemplate("intent"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unsaved template err = %v", err)
	}

	if err := SavePromptTemplate("intent", "v1 {{.content}}"); err != nil {
		t.Fatal(err)
	}
	if err := SavePromptTemplate("intent", "v2 {{.content}}"); err != nil {
		t.Fatal(err)
	}
	if err := SavePromptTemplate("response", "r {{.author}}"); err != nil {
		t.Fatal(err)
	}

	tmpl, err := GetPromptTemplate("intent")
	if err != nil || tmpl != "v2 {{.content}}" {
		t.Errorf("GetPromptTemplate = %q, %v", tmpl, err)
	}

	all, err := Store{}.GetPromptTemplates()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["response"] != "r {{.author}}" {
		t.Errorf("templates = %v", all)
	}

	if err := DeletePromptTemplate("intent"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetPromptTemplate("intent"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("deleted template err = %v", err)
	}
}

func TestStoreDelegates(t *testing.T) {
	setupDB(t)

	var s Store
	if err := s.SaveCycle(sampleCycle("x", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveResponses("x", []models.ResponseRecord{{ID: "rx", SourceID: "p", Author: "a", ContentKind: models.KindPost, CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}
	if got, _ := ListResponses("x"); len(got) != 1 {
		t.Errorf("responses = %v", got)
	}
}
