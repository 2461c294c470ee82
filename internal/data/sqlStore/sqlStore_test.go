package sqlStore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var documentColumns = []string{"id", "owner_id", "file_name", "storage_path", "size", "status",
	"error_message", "chunk_count", "indexed_chunk_count", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), gormConfig())
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func documentRow(id string, status commonModels.DocumentStatus) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(documentColumns).
		AddRow(id, "alice", "report.pdf", "alice/report.pdf", 2048, string(status), "", 0, 0, now, now)
}

func TestDocumentRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO `documents`").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), commonModels.Document{Id: "doc-1", OwnerId: "alice", FileName: "report.pdf"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDocumentRepository_Claim(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		rows     *sqlmock.Rows
		wantErr  error
	}{
		{"wins the claim", 1, documentRow("doc-1", commonModels.StatusProcessing), nil},
		{"already claimed", 0, documentRow("doc-1", commonModels.StatusProcessing), commonModels.ErrAlreadyClaimed},
		{"missing document", 0, sqlmock.NewRows(documentColumns), commonModels.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewDocumentRepository(db)

			mock.ExpectExec("UPDATE `documents` SET .* WHERE id = \\? AND status = \\?").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectQuery("SELECT \\* FROM `documents` WHERE id = \\?").WillReturnRows(tt.rows)

			doc, err := repo.ClaimForProcessing(context.Background(), "doc-1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("ClaimForProcessing failed: %v", err)
				}
				if doc.Status != commonModels.StatusProcessing || doc.Size != 2048 {
					t.Errorf("unexpected document %+v", doc)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestDocumentRepository_UpdateStatus(t *testing.T) {
	t.Run("illegal transition never reaches the database", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		err := repo.UpdateStatus(context.Background(), "doc-1", commonModels.StatusReady, commonModels.StatusPending, commonModels.StatusUpdate{})
		if !errors.Is(err, commonModels.ErrInvalidTransition) {
			t.Errorf("got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("status moved underneath", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectExec("UPDATE `documents` SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT \\* FROM `documents`").WillReturnRows(documentRow("doc-1", commonModels.StatusError))

		err := repo.UpdateStatus(context.Background(), "doc-1", commonModels.StatusProcessing, commonModels.StatusReady,
			commonModels.StatusUpdate{ChunkCount: 3, IndexedChunkCount: 3})
		if !errors.Is(err, commonModels.ErrInvalidTransition) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("database down is transient", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectExec("UPDATE `documents` SET").WillReturnError(errors.New("connection refused"))

		err := repo.UpdateStatus(context.Background(), "doc-1", commonModels.StatusProcessing, commonModels.StatusError,
			commonModels.StatusUpdate{ErrorMessage: "boom"})
		if !commonModels.IsTransient(err) {
			t.Errorf("got %v", err)
		}
	})
}

func TestDocumentRepository_GetSelectedKeepsRequestOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(documentColumns).
		AddRow("b", "alice", "b.pdf", "alice/b.pdf", 1, "Ready", "", 1, 1, now, now).
		AddRow("a", "alice", "a.pdf", "alice/a.pdf", 1, "Ready", "", 1, 1, now, now)
	mock.ExpectQuery("SELECT \\* FROM `documents` WHERE id IN \\(\\?,\\?,\\?\\) AND owner_id = \\?").WillReturnRows(rows)

	docs, err := repo.GetSelected(context.Background(), []string{"a", "x", "b"}, "alice")
	if err != nil {
		t.Fatalf("GetSelected failed: %v", err)
	}
	if len(docs) != 2 || docs[0].Id != "a" || docs[1].Id != "b" {
		t.Errorf("got %+v", docs)
	}

	none, err := repo.GetSelected(context.Background(), nil, "alice")
	if err != nil || len(none) != 0 {
		t.Errorf("empty id list: %v %v", none, err)
	}

	unowned, err := repo.GetSelected(context.Background(), []string{"a", "b"}, "")
	if err != nil || len(unowned) != 0 {
		t.Errorf("empty owner: %v %v", unowned, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDocumentRepository_CreateKeepsNotBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO `documents` \\(.*`not_before`\\)").WillReturnResult(sqlmock.NewResult(1, 1))

	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := repo.Create(context.Background(), commonModels.Document{Id: "doc-1", OwnerId: "alice", NotBefore: due})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSessionRepository_RecentMessagesChronological(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	ts := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "is_from_user", "content", "timestamp"}).
		AddRow(3, "s1", false, "third", ts).
		AddRow(2, "s1", true, "second", ts)
	mock.ExpectQuery("SELECT \\* FROM `chat_messages` WHERE session_id = \\? ORDER BY id DESC LIMIT \\?").WillReturnRows(rows)

	msgs, err := repo.GetRecentMessages(context.Background(), "s1", 2)
	if err != nil {
		t.Fatalf("GetRecentMessages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Errorf("got %+v", msgs)
	}
	if !msgs[0].IsFromUser {
		t.Error("sender flag lost")
	}
}

func TestSessionRepository_UnknownSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `chat_sessions` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "created_at"}))

	err := repo.AppendMessage(context.Background(), chatModel.ChatMessage{SessionId: "ghost", Content: "hi"})
	if !commonModels.IsNotFound(err) {
		t.Errorf("got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
