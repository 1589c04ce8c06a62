package conversations

import (
	"sync"
	"testing"
)

func TestAppendPreservesOrder(t *testing.T) {
	conversation := &Conversation{}
	conversation.Append(NewMessage(RoleUser, KindChat, "first"))
	conversation.Append(NewMessage(RoleAssistant, KindChat, "second"))
	conversation.Append(NewMessage(RoleUser, KindLive, "third"))

	history := conversation.History()
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i, text := range []string{"first", "second", "third"} {
		if history[i].Text != text {
			t.Fatalf("expected message %d to be %q, got %q", i, text, history[i].Text)
		}
	}
}

func TestHistoryIsDetachedFromLaterMutation(t *testing.T) {
	conversation := &Conversation{}
	msg := NewMessage(RoleAssistant, KindChat, "cited")
	msg.Grounding = []GroundingSource{{Title: "WHO", URI: "https://who.int"}}
	conversation.Append(msg)

	history := conversation.History()
	history[0].Text = "tampered"
	history[0].Grounding[0].Title = "tampered"

	fresh := conversation.History()
	if fresh[0].Text != "cited" {
		t.Fatalf("expected log text to be unaffected, got %q", fresh[0].Text)
	}
	if fresh[0].Grounding[0].Title != "WHO" {
		t.Fatalf("expected grounding to be unaffected, got %q", fresh[0].Grounding[0].Title)
	}
}

func TestMessagesGetDistinctIDs(t *testing.T) {
	first := NewMessage(RoleUser, KindChat, "a")
	second := NewMessage(RoleUser, KindChat, "a")
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct non-empty IDs, got %q and %q", first.ID, second.ID)
	}
}

func TestConcurrentAppends(t *testing.T) {
	conversation := &Conversation{}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				conversation.Append(NewMessage(RoleUser, KindChat, "x"))
			}
		}()
	}
	wg.Wait()

	if conversation.Len() != 200 {
		t.Fatalf("expected 200 messages, got %d", conversation.Len())
	}
}
