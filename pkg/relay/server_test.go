package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(NewStore(0)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postSet(t *testing.T, baseURL, kind string, body setRequest) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(baseURL+"/set_"+kind, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /set_%s: %v", kind, err)
	}
	return resp
}

func TestServer_SetThenGet(t *testing.T) {
	srv := newTestServer(t)

	resp := postSet(t, srv.URL, "note", setRequest{
		NoteID:  "5f0e8b9c000000000101d2a4",
		URL:     "https://edith.xiaohongshu.com/api/sns/v3/note/imagefeed?note_id=5f0e8b9c000000000101d2a4",
		Headers: map[string]string{"authorization": "session"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set: expected 200, got %d", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/get_note/5f0e8b9c000000000101d2a4")
	if err != nil {
		t.Fatalf("GET /get_note: %v", err)
	}
	defer getResp.Body.Close()

	var rec Record
	if err := json.NewDecoder(getResp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Headers["authorization"] != "session" {
		t.Errorf("headers not round-tripped: %v", rec.Headers)
	}

	// Retrieval is destructive: the same GET now yields {}.
	getResp2, err := http.Get(srv.URL + "/get_note/5f0e8b9c000000000101d2a4")
	if err != nil {
		t.Fatalf("second GET: %v", err)
	}
	defer getResp2.Body.Close()
	var rec2 Record
	if err := json.NewDecoder(getResp2.Body).Decode(&rec2); err != nil {
		t.Fatalf("decode second record: %v", err)
	}
	if !rec2.Empty() {
		t.Errorf("expected empty record after destructive read, got %v", rec2)
	}
}

func TestServer_GetMissIsEmptyObjectNotError(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/get_comment_list/unknown")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("miss must be 200 so pollers can keep waiting, got %d", resp.StatusCode)
	}
	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rec.Empty() {
		t.Errorf("expected empty record, got %v", rec)
	}
}

func TestServer_SetRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t)

	resp := postSet(t, srv.URL, "comment_list", setRequest{NoteID: "abc"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing url, got %d", resp.StatusCode)
	}

	malformed, err := http.Post(srv.URL+"/set_note", "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer malformed.Body.Close()
	if malformed.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", malformed.StatusCode)
	}
}
