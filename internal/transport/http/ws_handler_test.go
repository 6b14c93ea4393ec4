package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"oc-checklist-service/internal/app"
	"oc-checklist-service/internal/domain"
	"oc-checklist-service/internal/infra/memory"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	service := newTestService()
	ev, err := service.Start(context.Background(), "cl-1", "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?evaluationId=" + ev.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect snapshot first.
	_, payload := readNext(conn, t, "snapshot")
	if payload["state"] != string(domain.StateUnanswered) {
		t.Fatalf("expected unanswered snapshot, got %v", payload["state"])
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"itemId": "A1", "answer": "yes"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	_, payload = readNext(conn, t, "evaluation")
	progress, _ := payload["progress"].(map[string]any)
	if progress["answeredCount"] != float64(1) {
		t.Fatalf("expected one answered item, got %v", progress)
	}

	// Submitting early reports the first unanswered item.
	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	_, payload = readNext(conn, t, "error")
	first, _ := payload["first"].(map[string]any)
	if payload["remaining"] != float64(1) || first["itemId"] != "A2" {
		t.Fatalf("expected incomplete details, got %v", payload)
	}
}

func TestWebSocketRejectsUnknownType(t *testing.T) {
	service := newTestService()
	ev, _ := service.Start(context.Background(), "cl-1", "alice")

	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?evaluationId="+ev.ID, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "snapshot")
	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, payload := readNext(conn, t, "error")
	if payload["message"] != errUnsupportedType.Error() {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestWebSocketUnknownEvaluation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(newTestService()).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?evaluationId=nope", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, payload := readNext(conn, t, "error")
	if payload["message"] != domain.ErrEvaluationNotFound.Error() {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestWebSocketSubmitDeliversLockedEvaluation(t *testing.T) {
	service := newTestService()
	ev, _ := service.Start(context.Background(), "cl-1", "alice")
	_, _ = service.Answer(context.Background(), ev.ID, "A1", domain.AnswerYes)
	_, _ = service.Answer(context.Background(), ev.ID, "A2", domain.AnswerNA)

	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?evaluationId="+ev.ID, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "snapshot")
	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	_, payload := readNext(conn, t, "evaluation")
	if payload["state"] != string(domain.StateLocked) {
		t.Fatalf("expected locked evaluation, got %v", payload["state"])
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"itemId": "A1", "answer": "no"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, payload = readNext(conn, t, "error")
	if payload["message"] != domain.ErrEvaluationLocked.Error() {
		t.Fatalf("expected locked error, got %v", payload)
	}
}

func TestEnqueueStopsWhenWriterExits(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "error"}) {
		t.Fatalf("expected enqueue into free buffer")
	}

	close(writerDone)
	done := make(chan bool)
	go func() {
		done <- enqueue(send, writerDone, outboundMessage[any]{Type: "error"})
	}()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected enqueue to report a stopped writer")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked on a full buffer")
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newTestService() *app.EvaluationService {
	sessions := memory.NewSessionStore(time.Hour)
	checklists := memory.NewChecklistRepository(memory.NewStaticChecklistLoader(sampleChecklist()), time.Minute)
	return app.NewEvaluationService(sessions, checklists, memory.NewRecordStore())
}

func sampleChecklist() domain.Checklist {
	return domain.Checklist{
		ID:    "cl-1",
		Title: "Opening check",
		Categories: []domain.ChecklistCategory{
			{ID: "A", Title: "Kitchen", Sections: []domain.ChecklistSection{
				{ID: "A.1", Items: []domain.ChecklistItem{
					{ID: "A1", Weight: 2},
					{ID: "A2", Weight: 3},
				}},
			}},
		},
	}
}
