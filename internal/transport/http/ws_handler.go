package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"oc-checklist-service/internal/app"
	"oc-checklist-service/internal/domain"
)

type WSHandler struct {
	service  *app.EvaluationService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.EvaluationService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	ItemID string `json:"itemId"`
	Answer string `json:"answer"`
}

type notePayload struct {
	ItemID string `json:"itemId"`
	Note   string `json:"note"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and streams one evaluation.
// Clients send answers, notes and submissions; every change is pushed back
// as an "evaluation" message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	evaluationID := r.URL.Query().Get("evaluationId")
	if evaluationID == "" {
		http.Error(w, "missing evaluationId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), evaluationID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorBody]{Type: "error", Payload: errorBody{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer goroutine; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		msgType := "snapshot"
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: msgType, Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
				msgType = "evaluation"
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, evaluationID, inbound); err != nil {
			if !enqueue(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorDetails(err)}) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped, so the read loop never blocks on a dead connection.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// dispatch applies one client message. Successful changes reach the client
// through the subscription, so only errors are returned here.
func (h *WSHandler) dispatch(r *http.Request, evaluationID string, inbound inboundMessage) error {
	ctx := r.Context()
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		answer, err := domain.ParseAnswer(payload.Answer)
		if err != nil {
			return err
		}
		_, err = h.service.Answer(ctx, evaluationID, payload.ItemID, answer)
		return err
	case "clear":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.ClearAnswer(ctx, evaluationID, payload.ItemID)
		return err
	case "note":
		var payload notePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.SetNote(ctx, evaluationID, payload.ItemID, payload.Note)
		return err
	case "submit":
		var payload submitRequest
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return errInvalidPayload
			}
		}
		_, err := h.service.Submit(ctx, evaluationID, app.SubmitOptions{
			ConfirmMissingEvidence: payload.ConfirmMissingEvidence,
		})
		return err
	default:
		return errUnsupportedType
	}
}
