package conversation

import (
	"fmt"
	"strings"

	"github.com/espacodiva/bellabot/internal/salon"
)

// SystemPrompt is the persona instruction sent to the oracle on every call.
func SystemPrompt() []string {
	return []string{
		"Você é Bella, uma assistente virtual amigável do salão Espaço Diva. " +
			"Responda sempre em português, de forma breve e calorosa.",
		salon.Context,
	}
}

// Canned replies used whenever the oracle is unavailable. Every prompt the
// engine can emit has a deterministic fallback so behavior is testable
// without the oracle.
const (
	fallbackWelcome = "Olá! Eu sou a Bella, assistente virtual do Espaço Diva. 💇‍♀️\n" +
		"Digite o número de uma opção ou escreva o que deseja:\n" +
		"1 - Agendar horário\n2 - Dúvidas e sugestões\n3 - Falar com atendente\n4 - Meus horários\n0 - Sair"
	fallbackAskName         = "Perfeito, vamos agendar! Qual é o seu nome completo?"
	fallbackAskContact      = "Obrigada! Agora me informe um telefone para contato."
	fallbackAskInfoQuestion = "Claro! Sobre qual serviço você gostaria de saber mais?"
	fallbackHandoffContact  = "Sem problemas, vou transferir você para uma atendente. Qual telefone podemos usar para contato?"
	fallbackHandoffDone     = "Anotado! Uma atendente entrará em contato em breve. Obrigada pela preferência! 💜"
	fallbackGoodbye         = "Foi um prazer atender você! Volte sempre ao Espaço Diva. ✨"
	fallbackGeneric         = "Desculpe, não entendi. Digite 'menu' para ver as opções disponíveis."
	fallbackTip             = "Dica da Bella: hidrate os cabelos a cada quinze dias e use protetor térmico antes do secador. " +
		"Quer agendar um tratamento? Digite 'menu' e escolha a opção 1."
	fallbackServiceHelp = "Nossas sugestões mais pedidas: corte com hidratação, coloração com tratamento e manicure completa. " +
		"Qual serviço você gostaria?"
)

// promptAskProfessional lists the fixed roster.
func promptAskProfessional(clientName string) string {
	var b strings.Builder
	if clientName != "" {
		fmt.Fprintf(&b, "Prazer, %s! ", clientName)
	}
	b.WriteString("Com qual profissional você gostaria de agendar?\n")
	for _, p := range salon.Roster {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Specialty)
	}
	return strings.TrimRight(b.String(), "\n")
}

func promptAskService(professional string) string {
	return fmt.Sprintf("Ótima escolha! Qual serviço você deseja com %s? "+
		"Se estiver em dúvida, diga 'não sei' que eu sugiro opções.", professional)
}

// promptOfferSlots renders the numbered slot menu for a date.
func promptOfferSlots(date string, slots []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Horários disponíveis para %s:\n", date)
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d - %s\n", i+1, slot)
	}
	b.WriteString("Responda com o número do horário, ou 'outro dia' para ver o dia seguinte.")
	return b.String()
}

func promptConfirmation(name, service, professional, date, slot string) string {
	return fmt.Sprintf("Confirmando: %s, %s com %s em %s às %s. Está correto? (sim/não)",
		name, service, professional, date, slot)
}

func promptBooked(date, slot string) string {
	return fmt.Sprintf("Agendamento confirmado para %s às %s! Até breve no Espaço Diva. ✨\n"+
		"Digite 'menu' para voltar ao início.", date, slot)
}

func promptReschedule() string {
	return "Tudo bem, vamos recomeçar. Digite 'menu' e escolha a opção 1 para agendar novamente."
}

func promptInvalidSelection(max int) string {
	return fmt.Sprintf("Opção inválida. Escolha um número entre 1 e %d, ou diga 'outro dia'.", max)
}

func promptInfoMenu() string {
	return "📋 Informações e Sugestões 📋\n" +
		"1 - Catálogo de serviços\n2 - Pacotes\n3 - Tabela de preços\n4 - Dica de beleza\n" +
		"Digite 'menu' para voltar."
}
