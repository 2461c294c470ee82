package qdrantDB

import (
	"testing"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

func TestBuildPoints(t *testing.T) {
	chunks := []commonModels.DocChunk{
		{DocumentId: "doc-1", DocName: "report.pdf", Sequence: 0, Text: "first"},
		{DocumentId: "doc-1", DocName: "report.pdf", Sequence: 1, Text: "second"},
	}
	points, err := buildPoints(chunks, [][]float32{{0.1, 0.2}, {0.3, 0.4}})
	if err != nil {
		t.Fatalf("buildPoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points", len(points))
	}
	if points[1].Id.GetUuid() != vectorDB.ChunkPointId("doc-1", 1) {
		t.Errorf("point id is not the deterministic chunk id: %v", points[1].Id)
	}
	p := points[0].Payload
	if p[fieldDocumentId].GetStringValue() != "doc-1" || p[fieldContent].GetStringValue() != "first" || p[fieldSequence].GetIntegerValue() != 0 {
		t.Errorf("unexpected payload %v", p)
	}
}

func TestBuildPoints_Mismatch(t *testing.T) {
	if _, err := buildPoints([]commonModels.DocChunk{{DocumentId: "d"}}, nil); err == nil {
		t.Error("expected an error")
	}
}

func TestBuildPoints_InvalidUTF8(t *testing.T) {
	_, err := buildPoints([]commonModels.DocChunk{{DocumentId: "d", Text: string([]byte{0xff, 0xfe})}}, [][]float32{{1}})
	if err == nil {
		t.Error("expected a payload error instead of a panic")
	}
}

func TestToSearchResults(t *testing.T) {
	points := []*qdrant.ScoredPoint{
		{
			Score: 0.91,
			Payload: qdrant.NewValueMap(map[string]any{
				fieldContent:    "hello",
				fieldDocumentId: "doc-9",
				fieldSequence:   4,
			}),
		},
	}
	got := toSearchResults(points)
	if len(got) != 1 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].Text != "hello" || got[0].DocumentId != "doc-9" || got[0].Sequence != 4 || got[0].Score != 0.91 {
		t.Errorf("unexpected result %+v", got[0])
	}
}

func TestDocumentFilter(t *testing.T) {
	f := documentFilter([]string{"a", "b"})
	if len(f.Must) != 1 {
		t.Fatalf("expected one condition, got %d", len(f.Must))
	}
	field := f.Must[0].GetField()
	if field.GetKey() != fieldDocumentId {
		t.Errorf("filter on %s", field.GetKey())
	}
	if got := field.GetMatch().GetKeywords().GetStrings(); len(got) != 2 {
		t.Errorf("keywords %v", got)
	}
}
