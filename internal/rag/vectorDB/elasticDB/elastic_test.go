package elasticDB

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newTestStore(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Store, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{r.Method, r.URL.Path, string(b)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	s, err := New(Options{Addresses: []string{srv.URL}, Index: "chunks", Dimension: 3})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, &calls
}

func TestEnsureCollection_CreatesMissingIndex(t *testing.T) {
	s, calls := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected exists + create, got %d calls", len(*calls))
	}
	create := (*calls)[1]
	if create.method != http.MethodPut || create.path != "/chunks" {
		t.Errorf("unexpected create call %s %s", create.method, create.path)
	}
	if !strings.Contains(create.body, `"dims": 3`) || !strings.Contains(create.body, `"similarity": "cosine"`) {
		t.Errorf("mapping missing vector settings: %s", create.body)
	}
}

func TestEnsureCollection_Exists(t *testing.T) {
	s, calls := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if len(*calls) != 1 {
		t.Errorf("index should not be recreated, got %d calls", len(*calls))
	}
}

func TestUpsert_UsesDeterministicIds(t *testing.T) {
	s, calls := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	chunks := []commonModels.DocChunk{{DocumentId: "d1", Sequence: 0, Text: "a"}, {DocumentId: "d1", Sequence: 1, Text: "b"}}
	if err := s.Upsert(context.Background(), chunks, [][]float32{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("got %d index calls", len(*calls))
	}
	want := "/chunks/_doc/" + vectorDB.ChunkPointId("d1", 1)
	if (*calls)[1].path != want {
		t.Errorf("got path %s, want %s", (*calls)[1].path, want)
	}
}

func TestUpsert_ErrorStatus(t *testing.T) {
	s, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})
	err := s.Upsert(context.Background(), []commonModels.DocChunk{{DocumentId: "d"}}, [][]float32{{1, 0, 0}})
	if err == nil {
		t.Error("expected an error")
	}
}

func TestQuery_FiltersAndConvertsScore(t *testing.T) {
	s, calls := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_score":0.85,"_source":{"document_id":"d1","sequence":2,"content":"match"}}
		]}}`))
	})

	got, err := s.Query(context.Background(), []float32{1, 0, 0}, []string{"d1", "d2"}, 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].DocumentId != "d1" || got[0].Sequence != 2 {
		t.Fatalf("unexpected results %+v", got)
	}
	if got[0].Score < 0.699 || got[0].Score > 0.701 {
		t.Errorf("expected cosine 0.70, got %f", got[0].Score)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte((*calls)[0].body), &sent); err != nil {
		t.Fatalf("bad query body: %v", err)
	}
	knn := sent["knn"].(map[string]any)
	terms := knn["filter"].(map[string]any)["terms"].(map[string]any)["document_id"].([]any)
	if len(terms) != 2 {
		t.Errorf("filter not applied: %v", terms)
	}
	if knn["k"] != float64(10) {
		t.Errorf("k = %v", knn["k"])
	}
}

func TestQuery_NoDocuments(t *testing.T) {
	s, calls := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {})
	got, err := s.Query(context.Background(), []float32{1}, nil, 5)
	if err != nil || got != nil || len(*calls) != 0 {
		t.Errorf("expected a no-op, got %v %v %d", got, err, len(*calls))
	}
}

func TestDeleteDocument(t *testing.T) {
	s, calls := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deleted":3}`))
	})
	if err := s.DeleteDocument(context.Background(), "d1"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	c := (*calls)[0]
	if c.path != "/chunks/_delete_by_query" || !strings.Contains(c.body, `"d1"`) {
		t.Errorf("unexpected call %+v", c)
	}
}
