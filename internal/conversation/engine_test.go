package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/espacodiva/bellabot/internal/schedule"
)

// monday is a fixed reference "today"; the next business day is Tuesday.
var monday = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type engineFixture struct {
	engine   *Engine
	registry *schedule.MemoryRegistry
	sessions *MemorySessionStore
	now      *time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	now := monday
	clock := func() time.Time { return now }

	registry, err := schedule.NewMemoryRegistry(schedule.WithClock(clock))
	if err != nil {
		t.Fatalf("NewMemoryRegistry: %v", err)
	}
	sessions := NewMemorySessionStore(time.Hour).WithClock(clock)

	fixture := &engineFixture{
		registry: registry,
		sessions: sessions,
		now:      &now,
	}
	fixture.engine = NewEngine(registry, sessions, nil, nil, WithEngineClock(clock))
	return fixture
}

func (f *engineFixture) send(t *testing.T, sessionID, text string) *Response {
	t.Helper()
	resp, err := f.engine.ProcessMessage(context.Background(), MessageRequest{
		SessionID: sessionID,
		Message:   text,
	})
	if err != nil {
		t.Fatalf("ProcessMessage(%q): %v", text, err)
	}
	return resp
}

func (f *engineFixture) advanceToSlotList(t *testing.T, sessionID, name, contact string) *Response {
	t.Helper()
	f.send(t, sessionID, "quero agendar")
	f.send(t, sessionID, name)
	f.send(t, sessionID, contact)
	f.send(t, sessionID, "Ana")
	return f.send(t, sessionID, "corte")
}

func TestBookingFlowEndToEnd(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.send(t, "maria", "quero agendar")
	if resp.Stage != StageAwaitingName {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingName)
	}
	if !strings.Contains(resp.Message, "nome") {
		t.Fatalf("expected name prompt, got %q", resp.Message)
	}

	resp = f.send(t, "maria", "maria")
	if resp.Stage != StageAwaitingContact {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingContact)
	}

	resp = f.send(t, "maria", "11 99999-0000")
	if resp.Stage != StageAwaitingProfessional {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingProfessional)
	}
	for _, name := range []string{"Ana", "Beatriz", "Carla"} {
		if !strings.Contains(resp.Message, name) {
			t.Fatalf("roster prompt missing %s: %q", name, resp.Message)
		}
	}

	resp = f.send(t, "maria", "Ana")
	if resp.Stage != StageAwaitingService {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingService)
	}

	resp = f.send(t, "maria", "corte")
	if resp.Stage != StageAwaitingTime {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingTime)
	}
	if !strings.Contains(resp.Message, "03/03/2026") {
		t.Fatalf("expected next business day in offer, got %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "1 - 10:00") || !strings.Contains(resp.Message, "2 - 11:00") {
		t.Fatalf("expected numbered slot list, got %q", resp.Message)
	}

	resp = f.send(t, "maria", "1")
	if resp.Stage != StageAwaitingConfirmation {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingConfirmation)
	}
	for _, want := range []string{"Maria", "corte", "Ana", "03/03/2026", "10:00"} {
		if !strings.Contains(resp.Message, want) {
			t.Fatalf("confirmation missing %q: %q", want, resp.Message)
		}
	}

	resp = f.send(t, "maria", "sim")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}
	if !strings.Contains(resp.Message, "confirmado") {
		t.Fatalf("expected booking acknowledgment, got %q", resp.Message)
	}

	free, err := f.registry.FreeSlotsFor(context.Background(), time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), "Ana")
	if err != nil {
		t.Fatalf("FreeSlotsFor: %v", err)
	}
	for _, slot := range free {
		if slot == "10:00" {
			t.Fatal("booked slot still listed as free")
		}
	}
}

func TestConcurrentClientsConflictGetsRefreshedList(t *testing.T) {
	f := newEngineFixture(t)

	// Both clients reach the slot list while 10:00 is still free.
	f.advanceToSlotList(t, "maria", "Maria", "11 1111")
	f.advanceToSlotList(t, "joana", "Joana", "11 2222")

	// Maria books and confirms slot 1.
	f.send(t, "maria", "1")
	f.send(t, "maria", "sim")

	// Joana's stale pick collides and she gets a refreshed list.
	resp := f.send(t, "joana", "1")
	if resp.Stage != StageAwaitingTime {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingTime)
	}
	if !strings.Contains(resp.Message, "reservado") {
		t.Fatalf("expected conflict notice, got %q", resp.Message)
	}
	if strings.Contains(resp.Message, "10:00") {
		t.Fatalf("refreshed list still offers the taken slot: %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "1 - 11:00") {
		t.Fatalf("refreshed list should start at 11:00: %q", resp.Message)
	}

	resp = f.send(t, "joana", "1")
	if resp.Stage != StageAwaitingConfirmation {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingConfirmation)
	}
	if !strings.Contains(resp.Message, "11:00") {
		t.Fatalf("expected 11:00 confirmation, got %q", resp.Message)
	}
}

func TestMenuCommandResetsFromAnyStage(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, "maria", "quero agendar")
	f.send(t, "maria", "Maria")
	f.send(t, "maria", "11 1111")
	f.send(t, "maria", "Ana")

	resp := f.send(t, "maria", "menu")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}

	// Collected fields were discarded: scheduling restarts from the name.
	resp = f.send(t, "maria", "quero agendar")
	if resp.Stage != StageAwaitingName {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingName)
	}
}

func TestInvalidSlotSelectionReprompts(t *testing.T) {
	f := newEngineFixture(t)
	f.advanceToSlotList(t, "maria", "Maria", "11 1111")

	resp := f.send(t, "maria", "9")
	if resp.Stage != StageAwaitingTime {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingTime)
	}
	if !strings.Contains(resp.Message, "entre 1 e 4") {
		t.Fatalf("expected valid-range reprompt, got %q", resp.Message)
	}
}

func TestSlotSelectionByNormalizedTime(t *testing.T) {
	f := newEngineFixture(t)
	f.advanceToSlotList(t, "maria", "Maria", "11 1111")

	resp := f.send(t, "maria", "às 14h")
	if resp.Stage != StageAwaitingConfirmation {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingConfirmation)
	}
	if !strings.Contains(resp.Message, "14:00") {
		t.Fatalf("expected 14:00 booking, got %q", resp.Message)
	}
}

func TestAnotherDayAdvancesDate(t *testing.T) {
	f := newEngineFixture(t)
	f.advanceToSlotList(t, "maria", "Maria", "11 1111")

	resp := f.send(t, "maria", "outro dia")
	if resp.Stage != StageAwaitingTime {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingTime)
	}
	if !strings.Contains(resp.Message, "04/03/2026") {
		t.Fatalf("expected next day offer, got %q", resp.Message)
	}
}

func TestDeclinedConfirmationReturnsToIdle(t *testing.T) {
	f := newEngineFixture(t)
	f.advanceToSlotList(t, "maria", "Maria", "11 1111")
	f.send(t, "maria", "1")

	resp := f.send(t, "maria", "não")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}
	if !strings.Contains(resp.Message, "recomeçar") {
		t.Fatalf("expected reschedule offer, got %q", resp.Message)
	}
}

func TestHandoffCollectsContact(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.send(t, "maria", "3")
	if resp.Stage != StageAwaitingContact {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingContact)
	}

	resp = f.send(t, "maria", "11 98888-7777")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}
	if !strings.Contains(resp.Message, "atendente") {
		t.Fatalf("expected handoff acknowledgment, got %q", resp.Message)
	}
}

func TestInfoSubmenuStaysActive(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.send(t, "maria", "2")
	if resp.Stage != StageSubmenuInfo {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageSubmenuInfo)
	}

	resp = f.send(t, "maria", "1")
	if resp.Stage != StageSubmenuInfo {
		t.Fatalf("submenu should stay active, got stage %s", resp.Stage)
	}
	if !strings.Contains(resp.Message, "Cabelo") {
		t.Fatalf("expected service catalog, got %q", resp.Message)
	}

	resp = f.send(t, "maria", "4")
	if resp.Stage != StageAwaitingTipQuestion {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingTipQuestion)
	}

	resp = f.send(t, "maria", "como cuidar do cabelo?")
	if resp.Stage != StageSubmenuInfo {
		t.Fatalf("tip answer should return to submenu, got stage %s", resp.Stage)
	}

	resp = f.send(t, "maria", "menu")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}
}

func TestInactivityResetsSession(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, "maria", "quero agendar")
	f.send(t, "maria", "Maria")

	*f.now = f.now.Add(61 * time.Minute)

	// The stale session is treated as fresh: the text is classified as a
	// new intent instead of being consumed by AwaitingContact.
	resp := f.send(t, "maria", "quero agendar")
	if resp.Stage != StageAwaitingName {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingName)
	}
}

func TestWeekendDefaultDateSkipsToMonday(t *testing.T) {
	f := newEngineFixture(t)
	*f.now = time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC) // Friday

	resp := f.advanceToSlotList(t, "maria", "Maria", "11 1111")
	if !strings.Contains(resp.Message, "09/03/2026") {
		t.Fatalf("expected Monday offer, got %q", resp.Message)
	}
}

func TestMyAppointmentsListing(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.send(t, "maria", "4")
	if !strings.Contains(resp.Message, "não tem agendamentos") && !strings.Contains(resp.Message, "não encontrei") {
		t.Fatalf("expected empty listing, got %q", resp.Message)
	}

	f.advanceToSlotList(t, "maria", "Maria", "11 1111")
	f.send(t, "maria", "1")
	f.send(t, "maria", "sim")

	resp = f.send(t, "maria", "4")
	if !strings.Contains(resp.Message, "10:00") || !strings.Contains(resp.Message, "corte") {
		t.Fatalf("expected booked appointment in listing, got %q", resp.Message)
	}
}

func TestUnknownIdleTextGetsGenericReply(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.send(t, "maria", "xyzzy")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}
	if !strings.Contains(resp.Message, "menu") {
		t.Fatalf("generic reply should mention the menu, got %q", resp.Message)
	}
}

func TestMenuPhraseAtIdleShowsMenu(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.send(t, "maria", "quero ver o menu")
	if resp.Stage != StageIdle {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageIdle)
	}
	if !strings.Contains(resp.Message, "1 - Agendar horário") {
		t.Fatalf("expected the full menu, got %q", resp.Message)
	}
}

func TestFullyBookedDayOffersNextDay(t *testing.T) {
	f := newEngineFixture(t)

	tuesday := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	for _, slot := range []string{"10:00", "11:00", "14:00", "16:00"} {
		if _, err := f.registry.Book(context.Background(), schedule.Appointment{
			ClientName:    "Outra Cliente",
			ClientContact: "11 90000-0000",
			Professional:  "Ana",
			Service:       "corte",
			TimeSlot:      slot,
			Date:          tuesday,
		}); err != nil {
			t.Fatalf("Book(%s): %v", slot, err)
		}
	}

	resp := f.advanceToSlotList(t, "maria", "Maria", "11 1111")
	if resp.Stage != StageAwaitingTime {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageAwaitingTime)
	}
	if strings.Contains(resp.Message, "03/03/2026") {
		t.Fatalf("full day should not be offered, got %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "04/03/2026") {
		t.Fatalf("expected the following day in the offer, got %q", resp.Message)
	}
}

// slowLLM answers after a fixed delay, long enough for another turn to
// arrive while this one is still in flight.
type slowLLM struct {
	delay time.Duration
	reply string
}

func (s *slowLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	select {
	case <-time.After(s.delay):
		return LLMResponse{Text: s.reply}, nil
	case <-ctx.Done():
		return LLMResponse{}, ctx.Err()
	}
}

func TestConcurrentTurnsSameSessionSerialized(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.oracle = NewOracle(&slowLLM{delay: 150 * time.Millisecond, reply: "Claro, me conta mais!"}, 1, time.Second, nil)

	// First turn: free text that keeps the engine inside the slow oracle
	// call. Second turn arrives mid-flight and picks the info submenu.
	errCh := make(chan error, 1)
	go func() {
		_, err := f.engine.ProcessMessage(context.Background(), MessageRequest{
			SessionID: "maria",
			Message:   "pode me ajudar com uma coisa?",
		})
		errCh <- err
	}()
	time.Sleep(30 * time.Millisecond)

	resp := f.send(t, "maria", "2")
	if resp.Stage != StageSubmenuInfo {
		t.Fatalf("stage = %s, want %s", resp.Stage, StageSubmenuInfo)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("concurrent turn failed: %v", err)
	}

	// The slow turn finished after the submenu selection; its save must not
	// roll the stored stage back.
	session, err := f.sessions.GetOrCreate(context.Background(), "maria", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if session.Stage != StageSubmenuInfo {
		t.Fatalf("stored stage = %s, want %s", session.Stage, StageSubmenuInfo)
	}
}
