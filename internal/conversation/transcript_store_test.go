package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTranscriptStoreAppendAndList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewTranscriptStore(client)

	ctx := context.Background()
	turns := []TranscriptMessage{
		{Role: "user", Body: "quero agendar"},
		{Role: "assistant", Body: "Qual é o seu nome completo?"},
		{Role: "user", Body: "Maria"},
	}
	for _, msg := range turns {
		if err := store.Append(ctx, "maria", msg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	messages, err := store.List(ctx, "maria", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	if messages[0].Body != "quero agendar" || messages[2].Body != "Maria" {
		t.Fatalf("messages out of order: %+v", messages)
	}
	for _, msg := range messages {
		if msg.ID == "" || msg.Timestamp.IsZero() {
			t.Fatalf("message missing generated fields: %+v", msg)
		}
	}
}

func TestTranscriptStoreListLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewTranscriptStore(client)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, "maria", TranscriptMessage{Role: "user", Body: fmt.Sprintf("turn %d", i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	messages, err := store.List(ctx, "maria", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Body != "turn 3" || messages[1].Body != "turn 4" {
		t.Fatalf("expected the two most recent turns, got %+v", messages)
	}
}

func TestTranscriptStoreNilIsNoOp(t *testing.T) {
	var store *TranscriptStore

	if err := store.Append(context.Background(), "maria", TranscriptMessage{Role: "user", Body: "oi"}); err != nil {
		t.Fatalf("Append on nil store: %v", err)
	}
	messages, err := store.List(context.Background(), "maria", 0)
	if err != nil || messages != nil {
		t.Fatalf("List on nil store = %v, %v", messages, err)
	}
}
