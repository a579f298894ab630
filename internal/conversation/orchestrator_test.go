package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/espacodiva/bellabot/pkg/logging"
)

type fakeProcessor struct {
	startResp    *Response
	messageResp  *Response
	lastStartReq StartRequest
	lastMsgReq   MessageRequest
}

func (f *fakeProcessor) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	f.lastStartReq = req
	if f.startResp != nil {
		return f.startResp, nil
	}
	return &Response{SessionID: req.SessionID, Message: "ok"}, nil
}

func (f *fakeProcessor) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	f.lastMsgReq = req
	if f.messageResp != nil {
		return f.messageResp, nil
	}
	return &Response{SessionID: req.SessionID, Message: "ok"}, nil
}

func (f *fakeProcessor) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	return nil, nil
}

func newTestOrchestrator(t *testing.T, service Service) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(
		service,
		NewMemoryQueue(8),
		logging.Default(),
		WithWorkerCount(1),
		WithReceiveBatchSize(1),
		WithReceiveWaitSeconds(0),
	)
	t.Cleanup(func() {
		_ = o.Shutdown(context.Background())
	})
	return o
}

func TestOrchestratorStartConversation(t *testing.T) {
	service := &fakeProcessor{
		startResp: &Response{SessionID: "maria", Message: "Olá!"},
	}
	o := newTestOrchestrator(t, service)

	resp, err := o.StartConversation(context.Background(), StartRequest{SessionID: "maria"})
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}
	if resp.SessionID != "maria" || resp.Message != "Olá!" {
		t.Fatalf("resp = %+v", resp)
	}
	if service.lastStartReq.SessionID != "maria" {
		t.Fatalf("lastStartReq = %+v", service.lastStartReq)
	}
}

func TestOrchestratorProcessMessageRoundTrip(t *testing.T) {
	service := &fakeProcessor{}
	o := newTestOrchestrator(t, service)

	resp, err := o.ProcessMessage(context.Background(), MessageRequest{
		SessionID: "maria",
		Message:   "quero agendar",
	})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp.SessionID != "maria" {
		t.Fatalf("resp = %+v", resp)
	}
	if service.lastMsgReq.Message != "quero agendar" {
		t.Fatalf("lastMsgReq = %+v", service.lastMsgReq)
	}
}

func TestOrchestratorCallerCancellation(t *testing.T) {
	block := make(chan struct{})
	service := &blockingProcessor{block: block}
	o := newTestOrchestrator(t, service)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := o.StartConversation(ctx, StartRequest{SessionID: "maria"}); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}

	close(block)
}

func TestOrchestratorShutdownRejectsPendingCallers(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	service := &blockingProcessor{block: block}
	o := NewOrchestrator(service, NewMemoryQueue(8), logging.Default(), WithWorkerCount(1), WithReceiveWaitSeconds(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := o.StartConversation(context.Background(), StartRequest{SessionID: "maria"})
		errCh <- err
	}()

	// Give the worker a moment to pick the job up before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected pending caller to receive an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending caller never unblocked")
	}
}

type blockingProcessor struct {
	block chan struct{}
}

func (b *blockingProcessor) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.block:
		return &Response{SessionID: req.SessionID, Message: "done"}, nil
	}
}

func (b *blockingProcessor) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	return &Response{SessionID: req.SessionID, Message: "done"}, nil
}

func (b *blockingProcessor) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	return nil, nil
}
