package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/espacodiva/bellabot/internal/observability/metrics"
	"github.com/espacodiva/bellabot/internal/salon"
	"github.com/espacodiva/bellabot/internal/schedule"
	"github.com/espacodiva/bellabot/pkg/logging"
)

// maxSlotSearchDays bounds the "try the next day" loop when a professional
// is fully booked.
const maxSlotSearchDays = 14

var titleCaser = cases.Title(language.BrazilianPortuguese)

// Engine is the conversation state machine. It owns every transition and
// validation while delegating phrasing to the oracle, and consults the
// slot registry and time normalizer as oracles of its own.
type Engine struct {
	registry    schedule.Registry
	sessions    SessionDirectory
	oracle      *Oracle
	transcripts *TranscriptStore
	messages    *MessageStore
	metrics     *metrics.ConversationMetrics
	logger      *logging.Logger
	turns       *turnLocks
	now         func() time.Time
}

// EngineOption customizes optional engine collaborators.
type EngineOption func(*Engine)

// WithTranscripts records every turn in the transcript store.
func WithTranscripts(store *TranscriptStore) EngineOption {
	return func(e *Engine) { e.transcripts = store }
}

// WithMessageStore wires the relational message log and client directory.
func WithMessageStore(store *MessageStore) EngineOption {
	return func(e *Engine) { e.messages = store }
}

// WithMetrics wires turn and booking counters.
func WithMetrics(m *metrics.ConversationMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithEngineClock overrides the time source. Test hook.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds the conversation engine. Registry and sessions are
// required; everything else degrades gracefully when absent.
func NewEngine(registry schedule.Registry, sessions SessionDirectory, oracle *Oracle, logger *logging.Logger, opts ...EngineOption) *Engine {
	if registry == nil {
		panic("conversation: registry cannot be nil")
	}
	if sessions == nil {
		panic("conversation: session directory cannot be nil")
	}
	if oracle == nil {
		oracle = NewOracle(nil, 0, 0, logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		registry: registry,
		sessions: sessions,
		oracle:   oracle,
		logger:   logger,
		turns:    newTurnLocks(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartConversation opens (or resumes) a session and returns the welcome
// message with the top-level menu.
func (e *Engine) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	if req.SessionID == "" {
		return nil, errors.New("conversation: session id required")
	}

	lock := e.turns.acquire(req.SessionID)
	defer e.turns.release(req.SessionID, lock)

	session, err := e.sessions.GetOrCreate(ctx, req.SessionID, req.Contact)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	reply := e.phrase(ctx, nil,
		"Dê boas-vindas a um cliente do salão, apresente-se como assistente virtual Bella e mostre o menu de opções.",
		fallbackWelcome)

	e.record(ctx, session, req.Channel, "", reply)
	return &Response{
		SessionID: session.SessionID,
		Message:   reply,
		Stage:     session.Stage,
		Timestamp: e.now().UTC(),
	}, nil
}

// ProcessMessage consumes exactly one inbound message and produces exactly
// one outbound reply, advancing the session's stage as a side effect. Turns
// for the same session are serialized; a second message waits for the
// in-flight turn to save before its session is loaded.
func (e *Engine) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	if req.SessionID == "" {
		return nil, errors.New("conversation: session id required")
	}

	lock := e.turns.acquire(req.SessionID)
	defer e.turns.release(req.SessionID, lock)

	started := e.now()
	session, err := e.sessions.GetOrCreate(ctx, req.SessionID, req.Contact)
	if err != nil {
		return nil, err
	}
	stageBefore := session.Stage

	text := strings.TrimSpace(req.Message)

	var reply string
	if IsMenuCommand(text) {
		// Global rule: "menu" resets from any stage, discarding
		// partially collected fields.
		session.Reset(e.now())
		reply = fallbackWelcome
	} else {
		reply = e.dispatch(ctx, session, text)
	}

	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	e.record(ctx, session, req.Channel, text, reply)
	e.metrics.ObserveTurn(string(stageBefore), string(req.Channel))
	e.metrics.ObserveTurnLatency(string(stageBefore), e.now().Sub(started).Seconds())

	return &Response{
		SessionID: session.SessionID,
		Message:   reply,
		Stage:     session.Stage,
		Timestamp: e.now().UTC(),
	}, nil
}

// GetHistory returns the session transcript, oldest first.
func (e *Engine) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	entries, err := e.transcripts.List(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, Message{Role: entry.Role, Content: entry.Body})
	}
	return messages, nil
}

// dispatch routes one inbound message through the current stage's handler.
func (e *Engine) dispatch(ctx context.Context, session *Session, text string) string {
	switch session.Stage {
	case StageIdle:
		return e.handleIdle(ctx, session, text)
	case StageAwaitingName:
		return e.handleAwaitingName(ctx, session, text)
	case StageAwaitingContact:
		return e.handleAwaitingContact(ctx, session, text)
	case StageAwaitingProfessional:
		return e.handleAwaitingProfessional(ctx, session, text)
	case StageAwaitingService:
		return e.handleAwaitingService(ctx, session, text)
	case StageAwaitingTime:
		return e.handleAwaitingTime(ctx, session, text)
	case StageAwaitingConfirmation:
		return e.handleAwaitingConfirmation(ctx, session, text)
	case StageSubmenuInfo:
		return e.handleSubmenuInfo(ctx, session, text)
	case StageAwaitingTipQuestion:
		return e.handleTipQuestion(ctx, session, text)
	default:
		session.Reset(e.now())
		return fallbackWelcome
	}
}

func (e *Engine) handleIdle(ctx context.Context, session *Session, text string) string {
	switch ClassifyIntent(text) {
	case IntentMenu:
		// "ver o menu" and friends: not the literal reset command, but
		// the client still wants the options back.
		session.Reset(e.now())
		return fallbackWelcome
	case IntentSchedule:
		return e.beginScheduling(ctx, session)
	case IntentInfo:
		session.Stage = StageSubmenuInfo
		return promptInfoMenu()
	case IntentHandoff:
		session.Purpose = "handoff"
		session.Stage = StageAwaitingContact
		return e.phrase(ctx, session,
			"O cliente deseja falar com uma atendente humana. Informe que vai transferir e peça um telefone para contato.",
			fallbackHandoffContact)
	case IntentAppointments:
		return e.listAppointments(ctx, session)
	case IntentExit:
		reply := e.phrase(ctx, session,
			"O cliente deseja encerrar o atendimento. Responda com uma despedida calorosa e convide para retornar.",
			fallbackGoodbye)
		session.Reset(e.now())
		return reply
	case IntentGreeting:
		return e.phrase(ctx, session,
			fmt.Sprintf("O cliente cumprimentou com: %q. Responda de forma calorosa e mostre o menu de opções.", text),
			fallbackWelcome)
	default:
		return e.phrase(ctx, session,
			fmt.Sprintf("O cliente disse: %q. Responda de forma conversacional e lembre que pode digitar 'menu' para ver as opções.", text),
			fallbackGeneric)
	}
}

// beginScheduling branches on whether the contact is already in the client
// directory: known clients skip straight to choosing a professional.
func (e *Engine) beginScheduling(ctx context.Context, session *Session) string {
	session.Purpose = "schedule"

	if session.Contact != "" {
		profile, err := e.messages.LookupClient(ctx, session.Contact)
		if err != nil {
			e.logger.Warn("client lookup failed", "error", err)
		} else if profile != nil && profile.Name != "" {
			session.ClientName = profile.Name
			session.Stage = StageAwaitingProfessional
			return promptAskProfessional(session.ClientName)
		}
	}

	session.Stage = StageAwaitingName
	return e.phrase(ctx, session,
		"O cliente escolheu agendar um horário. Confirme que vai iniciar o agendamento e peça o nome completo.",
		fallbackAskName)
}

func (e *Engine) handleAwaitingName(ctx context.Context, session *Session, text string) string {
	if text == "" {
		return fallbackAskName
	}
	session.ClientName = titleCaser.String(strings.ToLower(text))

	if session.Contact == "" {
		session.Stage = StageAwaitingContact
		return fallbackAskContact
	}
	session.Stage = StageAwaitingProfessional
	return promptAskProfessional(session.ClientName)
}

func (e *Engine) handleAwaitingContact(ctx context.Context, session *Session, text string) string {
	if text == "" {
		return fallbackAskContact
	}
	session.Contact = text

	if session.Purpose == "handoff" {
		reply := e.phrase(ctx, session,
			fmt.Sprintf("O cliente forneceu o contato %q. Confirme que uma atendente entrará em contato em breve e agradeça.", text),
			fallbackHandoffDone)
		session.Reset(e.now())
		return reply
	}

	session.Stage = StageAwaitingProfessional
	return promptAskProfessional(session.ClientName)
}

func (e *Engine) handleAwaitingProfessional(ctx context.Context, session *Session, text string) string {
	professional, ok := salon.ResolveProfessional(text)
	if !ok {
		// Unparseable: re-prompt, remain in state.
		return "Não encontrei essa profissional. " + promptAskProfessional("")
	}
	session.Professional = professional
	session.Stage = StageAwaitingService
	return promptAskService(professional)
}

func (e *Engine) handleAwaitingService(ctx context.Context, session *Session, text string) string {
	if text == "" {
		return promptAskService(session.Professional)
	}
	if IsIndecisive(text) {
		return e.phrase(ctx, session,
			fmt.Sprintf("O cliente está indeciso sobre o serviço e disse: %q. Sugira serviços adequados para a profissional %s.", text, session.Professional),
			fallbackServiceHelp)
	}

	session.Service = text
	date, slots, err := e.findOpenDay(ctx, schedule.NextBusinessDay(e.now()), session.Professional)
	if err != nil {
		e.logger.Error("free slot search failed", "error", err, "professional", session.Professional)
		return "Tive um problema ao consultar a agenda. Pode tentar novamente em instantes?"
	}

	session.Date = date
	session.OfferedSlots = slots
	session.Stage = StageAwaitingTime
	return promptOfferSlots(formatDate(date), slots)
}

func (e *Engine) handleAwaitingTime(ctx context.Context, session *Session, text string) string {
	if IsAnotherDay(text) {
		date, slots, err := e.findOpenDay(ctx, nextCandidateDay(session.Date), session.Professional)
		if err != nil {
			e.logger.Error("free slot search failed", "error", err, "professional", session.Professional)
			return "Tive um problema ao consultar a agenda. Pode tentar novamente em instantes?"
		}
		session.Date = date
		session.OfferedSlots = slots
		return promptOfferSlots(formatDate(date), slots)
	}

	slot, ok := e.selectSlot(session, text)
	if !ok {
		// InvalidSelection: re-prompt with the valid range.
		return promptInvalidSelection(len(session.OfferedSlots))
	}

	appt := schedule.Appointment{
		ClientName:    session.ClientName,
		ClientContact: session.Contact,
		Professional:  session.Professional,
		Service:       session.Service,
		TimeSlot:      slot,
		Date:          session.Date,
	}
	finalDate, err := e.registry.Book(ctx, appt)
	if err != nil {
		if errors.Is(err, schedule.ErrSlotTaken) {
			// Conflict: present the refreshed list for the same day.
			e.metrics.ObserveBooking("conflict")
			slots, ferr := e.registry.FreeSlotsFor(ctx, session.Date, session.Professional)
			if ferr != nil || len(slots) == 0 {
				date, refreshed, derr := e.findOpenDay(ctx, nextCandidateDay(session.Date), session.Professional)
				if derr != nil {
					return "Esse horário acabou de ser reservado e não consegui atualizar a agenda. Tente novamente."
				}
				session.Date = date
				slots = refreshed
			}
			session.OfferedSlots = slots
			return "Ah, esse horário acabou de ser reservado! 😔\n" + promptOfferSlots(formatDate(session.Date), slots)
		}
		e.metrics.ObserveBooking("error")
		e.logger.Error("booking failed", "error", err)
		return "Não consegui concluir o agendamento agora. Pode tentar novamente?"
	}

	e.metrics.ObserveBooking("booked")
	session.Date = finalDate
	session.TimeSlot = slot
	session.Stage = StageAwaitingConfirmation
	return promptConfirmation(session.ClientName, session.Service, session.Professional, formatDate(finalDate), slot)
}

func (e *Engine) handleAwaitingConfirmation(ctx context.Context, session *Session, text string) string {
	if IsAffirmative(text) {
		if err := e.messages.UpsertClient(ctx, ClientProfile{
			ClientID:  session.Contact,
			Name:      session.ClientName,
			LastVisit: session.Date,
			Preferences: map[string]string{
				"professional": session.Professional,
				"service":      session.Service,
			},
		}); err != nil {
			e.logger.Warn("client upsert failed", "error", err)
		}
		reply := promptBooked(formatDate(session.Date), session.TimeSlot)
		contact := session.Contact
		session.Reset(e.now())
		session.Contact = contact
		return reply
	}

	// A declined confirmation returns to Idle with an offer to restart.
	contact := session.Contact
	session.Reset(e.now())
	session.Contact = contact
	return promptReschedule()
}

func (e *Engine) handleSubmenuInfo(ctx context.Context, session *Session, text string) string {
	switch strings.TrimSpace(text) {
	case "1":
		return salon.ServiceCatalog() + "\n\n" + promptInfoMenu()
	case "2":
		return salon.PackageList() + "\n\n" + promptInfoMenu()
	case "3":
		return salon.PriceTable() + "\n\n" + promptInfoMenu()
	case "4":
		session.Stage = StageAwaitingTipQuestion
		return e.phrase(ctx, session,
			"O cliente quer uma dica de beleza. Pergunte sobre qual serviço ou cuidado gostaria de saber mais.",
			fallbackAskInfoQuestion)
	default:
		// Free-text questions are answered in place; the submenu stays
		// active for repeated queries.
		return e.phrase(ctx, session,
			fmt.Sprintf("O cliente está pedindo informações com a mensagem: %q. Forneça detalhes relevantes sobre os serviços e preços do salão.", text),
			fallbackTip) + "\n\n" + promptInfoMenu()
	}
}

func (e *Engine) handleTipQuestion(ctx context.Context, session *Session, text string) string {
	reply := e.phrase(ctx, session,
		fmt.Sprintf("O cliente fez a pergunta: %q. Responda com uma dica prática de beleza relacionada aos serviços do salão.", text),
		fallbackTip)
	session.Stage = StageSubmenuInfo
	return reply + "\n\n" + promptInfoMenu()
}

// listAppointments answers the "meus horários" menu option.
func (e *Engine) listAppointments(ctx context.Context, session *Session) string {
	lister, ok := e.registry.(schedule.AppointmentLister)
	if !ok || session.Contact == "" {
		return "Ainda não encontrei agendamentos para você. Digite 'menu' e escolha a opção 1 para agendar."
	}
	appts, err := lister.AppointmentsFor(ctx, session.Contact)
	if err != nil {
		e.logger.Error("appointment listing failed", "error", err)
		return "Não consegui consultar seus agendamentos agora. Tente novamente em instantes."
	}
	if len(appts) == 0 {
		return "Você ainda não tem agendamentos. Digite 'menu' e escolha a opção 1 para agendar."
	}

	var b strings.Builder
	b.WriteString("Seus agendamentos:\n")
	for _, appt := range appts {
		fmt.Fprintf(&b, "- %s às %s: %s com %s\n", formatDate(appt.Date), appt.TimeSlot, appt.Service, appt.Professional)
	}
	return strings.TrimRight(b.String(), "\n")
}

// selectSlot resolves the client's reply to one of the offered slots,
// by ordinal index first and by normalized time as a courtesy.
func (e *Engine) selectSlot(session *Session, text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if idx, err := strconv.Atoi(trimmed); err == nil {
		if idx < 1 || idx > len(session.OfferedSlots) {
			return "", false
		}
		return session.OfferedSlots[idx-1], true
	}
	if slot, ok := schedule.Normalize(trimmed); ok {
		for _, offered := range session.OfferedSlots {
			if offered == slot {
				return slot, true
			}
		}
	}
	return "", false
}

// findOpenDay walks forward from the given date until a day with free
// slots appears, skipping weekends.
func (e *Engine) findOpenDay(ctx context.Context, from time.Time, professional string) (time.Time, []string, error) {
	date := from
	for i := 0; i < maxSlotSearchDays; i++ {
		slots, err := e.registry.FreeSlotsFor(ctx, date, professional)
		if err != nil {
			return time.Time{}, nil, err
		}
		if len(slots) > 0 {
			return date, slots, nil
		}
		date = nextCandidateDay(date)
	}
	return time.Time{}, nil, fmt.Errorf("conversation: no free slots for %s within %d days", professional, maxSlotSearchDays)
}

// nextCandidateDay advances one day, skipping Saturday and Sunday.
func nextCandidateDay(date time.Time) time.Time {
	next := date.AddDate(0, 0, 1)
	switch next.Weekday() {
	case time.Saturday:
		return next.AddDate(0, 0, 2)
	case time.Sunday:
		return next.AddDate(0, 0, 1)
	}
	return next
}

func formatDate(date time.Time) string {
	return date.Format("02/01/2006")
}

// phrase asks the oracle to word a reply and falls back to canned text on
// any failure, so oracle outages never surface to the client.
func (e *Engine) phrase(ctx context.Context, session *Session, prompt, fallback string) string {
	var history []Message
	if session != nil && e.transcripts != nil {
		entries, err := e.transcripts.List(ctx, session.SessionID, 20)
		if err == nil {
			for _, entry := range entries {
				history = append(history, Message{Role: entry.Role, Content: entry.Body})
			}
		}
	}

	reply, err := e.oracle.Ask(ctx, SystemPrompt(), history, prompt)
	if err != nil {
		if !errors.Is(err, ErrOracleUnavailable) {
			e.logger.Warn("oracle request failed", "error", err)
		}
		e.metrics.ObserveOracleFallback()
		return fallback
	}
	return reply
}

// record persists the turn to the transcript store and message log.
func (e *Engine) record(ctx context.Context, session *Session, channel Channel, inbound, outbound string) {
	if e.transcripts != nil {
		if inbound != "" {
			if err := e.transcripts.Append(ctx, session.SessionID, TranscriptMessage{
				Role: "user", Body: inbound, Stage: session.Stage, Channel: channel,
			}); err != nil {
				e.logger.Warn("transcript append failed", "error", err)
			}
		}
		if err := e.transcripts.Append(ctx, session.SessionID, TranscriptMessage{
			Role: "assistant", Body: outbound, Stage: session.Stage, Channel: channel,
		}); err != nil {
			e.logger.Warn("transcript append failed", "error", err)
		}
	}
	if err := e.messages.LogExchange(ctx, session.SessionID, inbound, outbound); err != nil {
		e.logger.Warn("message log failed", "error", err)
	}
}
