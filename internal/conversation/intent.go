package conversation

import "strings"

// Intent is the closed set of requests the engine recognizes from free text.
type Intent string

const (
	IntentUnknown      Intent = "unknown"
	IntentMenu         Intent = "menu"
	IntentSchedule     Intent = "schedule"
	IntentInfo         Intent = "info"
	IntentHandoff      Intent = "handoff"
	IntentAppointments Intent = "appointments"
	IntentExit         Intent = "exit"
	IntentGreeting     Intent = "greeting"
)

// intentKeywords maps lowercase trigger phrases to intents. Substring
// matches run in declaration order, so longer phrases that contain a
// shorter trigger ("meus horários" vs "horário") must come first.
var intentKeywords = []struct {
	phrase string
	intent Intent
}{
	{"menu", IntentMenu},
	{"meus horários", IntentAppointments},
	{"meus horarios", IntentAppointments},
	{"meus agendamentos", IntentAppointments},
	{"agendar", IntentSchedule},
	{"marcar", IntentSchedule},
	{"horário", IntentSchedule},
	{"horario", IntentSchedule},
	{"agenda", IntentSchedule},
	{"dica", IntentInfo},
	{"informa", IntentInfo},
	{"serviço", IntentInfo},
	{"servico", IntentInfo},
	{"preço", IntentInfo},
	{"preco", IntentInfo},
	{"pacote", IntentInfo},
	{"atendente", IntentHandoff},
	{"humano", IntentHandoff},
	{"falar com", IntentHandoff},
	{"sair", IntentExit},
	{"tchau", IntentExit},
	{"oi", IntentGreeting},
	{"olá", IntentGreeting},
	{"ola", IntentGreeting},
	{"bom dia", IntentGreeting},
	{"boa tarde", IntentGreeting},
	{"boa noite", IntentGreeting},
}

// menuDigits maps the numbered top-level menu to intents.
var menuDigits = map[string]Intent{
	"1": IntentSchedule,
	"2": IntentInfo,
	"3": IntentHandoff,
	"4": IntentAppointments,
	"0": IntentExit,
}

// ClassifyIntent resolves free text to an Intent using the fixed keyword
// table. It never consults the oracle; callers fall back to it themselves
// when IntentUnknown comes back.
func ClassifyIntent(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return IntentUnknown
	}
	if intent, ok := menuDigits[normalized]; ok {
		return intent
	}
	if normalized == "menu" {
		return IntentMenu
	}
	for _, kw := range intentKeywords {
		if kw.phrase == "oi" || kw.phrase == "ola" || kw.phrase == "olá" {
			// Short greetings only match as standalone words,
			// otherwise "oi" hides inside "foi" and similar.
			if containsWord(normalized, kw.phrase) {
				return kw.intent
			}
			continue
		}
		if strings.Contains(normalized, kw.phrase) {
			return kw.intent
		}
	}
	return IntentUnknown
}

// IsMenuCommand reports whether the message is the literal global reset
// command, honored in every stage.
func IsMenuCommand(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "menu")
}

// IsAffirmative recognizes the confirmation vocabulary.
func IsAffirmative(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "sim", "s", "yes", "confirmo", "confirmar", "ok", "correto", "certo", "isso", "pode ser":
		return true
	}
	return false
}

// IsIndecisive reports whether the client asked for help choosing.
func IsIndecisive(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range []string{"não sei", "nao sei", "indecisa", "indeciso", "sugest", "me ajuda"} {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// IsAnotherDay reports whether the client asked to see slots for a later day.
func IsAnotherDay(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range []string{"outro dia", "outra data", "próximo dia", "proximo dia", "dia seguinte"} {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for _, field := range strings.Fields(text) {
		if strings.Trim(field, ".,!?") == word {
			return true
		}
	}
	return false
}
