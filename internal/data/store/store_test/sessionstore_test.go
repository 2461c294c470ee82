package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/data/store"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func sessionStores(t *testing.T) map[string]chatModel.SessionStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return map[string]chatModel.SessionStore{
		"redis":    store.GetRedisSessionStore(redisStore.NewStore(client, config.RedisSessionStore)),
		"inMemory": store.InitInMemorySessionStore(),
	}
}

func TestSessionStore_Documents(t *testing.T) {
	for name, sessions := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := sessions.CreateSession(ctx, chatModel.ChatSession{Id: "s1", OwnerId: "alice", Title: "Contracts", DocumentIds: []string{"d2"}})
			if err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}
			if err := sessions.AttachDocument(ctx, "s1", "d1"); err != nil {
				t.Fatalf("AttachDocument failed: %v", err)
			}
			_ = sessions.AttachDocument(ctx, "s1", "d1")

			got, err := sessions.GetSession(ctx, "s1")
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}
			if got.Title != "Contracts" || got.OwnerId != "alice" {
				t.Errorf("unexpected session %+v", got)
			}
			if len(got.DocumentIds) != 2 || got.DocumentIds[0] != "d1" || got.DocumentIds[1] != "d2" {
				t.Errorf("DocumentIds = %v", got.DocumentIds)
			}
		})
	}
}

func TestSessionStore_UnknownSession(t *testing.T) {
	for name, sessions := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := sessions.GetSession(ctx, "ghost"); !commonModels.IsNotFound(err) {
				t.Errorf("GetSession: got %v", err)
			}
			if err := sessions.AttachDocument(ctx, "ghost", "d1"); !commonModels.IsNotFound(err) {
				t.Errorf("AttachDocument: got %v", err)
			}
			err := sessions.AppendMessage(ctx, chatModel.ChatMessage{SessionId: "ghost", Content: "hi"})
			if !commonModels.IsNotFound(err) {
				t.Errorf("AppendMessage: got %v", err)
			}
		})
	}
}

func TestSessionStore_RecentMessagesAreChronological(t *testing.T) {
	for name, sessions := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = sessions.CreateSession(ctx, chatModel.ChatSession{Id: "s2"})
			for i := 1; i <= 7; i++ {
				msg := chatModel.ChatMessage{SessionId: "s2", IsFromUser: i%2 == 1, Content: fmt.Sprintf("m%d", i)}
				if err := sessions.AppendMessage(ctx, msg); err != nil {
					t.Fatalf("AppendMessage failed: %v", err)
				}
			}

			recent, err := sessions.GetRecentMessages(ctx, "s2", config.RecentMessageCount)
			if err != nil {
				t.Fatalf("GetRecentMessages failed: %v", err)
			}
			want := []string{"m3", "m4", "m5", "m6", "m7"}
			if len(recent) != len(want) {
				t.Fatalf("got %d messages", len(recent))
			}
			for i, m := range recent {
				if m.Content != want[i] {
					t.Errorf("message %d = %s, want %s", i, m.Content, want[i])
				}
			}
			if !recent[0].IsFromUser || recent[1].IsFromUser {
				t.Error("sender flags were not preserved")
			}

			all, _ := sessions.GetMessages(ctx, "s2")
			if len(all) != 7 {
				t.Errorf("GetMessages returned %d", len(all))
			}

			none, _ := sessions.GetRecentMessages(ctx, "empty", 5)
			if len(none) != 0 {
				t.Errorf("expected no messages, got %v", none)
			}
		})
	}
}
