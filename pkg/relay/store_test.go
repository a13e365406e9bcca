package relay

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStore_PublishConsumeOnce(t *testing.T) {
	store := NewStore(0)

	headers := map[string]string{"x-sign": "abc"}
	store.Publish("5f0e8b9c000000000101d2a4", KindNote, "https://edith.xiaohongshu.com/api/sns/v3/note/imagefeed?note_id=5f0e8b9c000000000101d2a4", headers)

	rec := store.Consume("5f0e8b9c000000000101d2a4", KindNote)
	if rec.Empty() {
		t.Fatal("expected record after publish, got empty")
	}
	if rec.Headers["x-sign"] != "abc" {
		t.Errorf("headers not preserved: %v", rec.Headers)
	}

	// A second consume must return empty: retrieval is destructive.
	rec = store.Consume("5f0e8b9c000000000101d2a4", KindNote)
	if !rec.Empty() {
		t.Errorf("expected empty record on second consume, got %v", rec)
	}
}

func TestStore_ConsumeBeforePublish(t *testing.T) {
	store := NewStore(0)

	rec := store.Consume("never-published", KindNote)
	if !rec.Empty() {
		t.Errorf("expected empty record for unknown key, got %v", rec)
	}
}

func TestStore_OverwriteLastWriteWins(t *testing.T) {
	store := NewStore(0)

	store.Publish("abc", KindCommentList, "https://example.com/v1", nil)
	store.Publish("abc", KindCommentList, "https://example.com/v2", nil)

	rec := store.Consume("abc", KindCommentList)
	if rec.URL != "https://example.com/v2" {
		t.Errorf("expected last published URL, got %q", rec.URL)
	}
}

func TestStore_KindsAreIndependent(t *testing.T) {
	store := NewStore(0)

	store.Publish("abc", KindNote, "https://example.com/note", nil)
	store.Publish("abc", KindCommentList, "https://example.com/comments", nil)

	if got := store.Consume("abc", KindNote).URL; got != "https://example.com/note" {
		t.Errorf("note channel: got %q", got)
	}
	if got := store.Consume("abc", KindCommentList).URL; got != "https://example.com/comments" {
		t.Errorf("comment channel: got %q", got)
	}
}

func TestStore_EmptyNoteIDIsNoOp(t *testing.T) {
	store := NewStore(0)

	store.Publish("", KindNote, "https://example.com", nil)
	if store.Len() != 0 {
		t.Errorf("expected no stored records, got %d", store.Len())
	}
}

func TestStore_ConcurrentPublishConsume(t *testing.T) {
	store := NewStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("note-%d", i)
		go func() {
			defer wg.Done()
			store.Publish(id, KindNote, "https://example.com/"+id, nil)
		}()
		go func() {
			defer wg.Done()
			// May race ahead of the publish; either outcome is fine,
			// the store just must not corrupt.
			store.Consume(id, KindNote)
		}()
	}
	wg.Wait()
}

func TestStore_SweepExpiresOldRecords(t *testing.T) {
	store := NewStore(10 * time.Millisecond)

	store.Publish("old", KindNote, "https://example.com/old", nil)
	store.sweep(time.Now().Add(time.Second))

	if store.Len() != 0 {
		t.Errorf("expected expired record to be swept, %d remain", store.Len())
	}
}
