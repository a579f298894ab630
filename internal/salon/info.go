package salon

import (
	"fmt"
	"strings"
)

// Context is the salon description injected into the oracle's system prompt.
const Context = `O Espaço Diva é um salão de beleza completo com serviços de:
- Cabelo: cortes, coloração, tratamentos
- Unhas: manicure, pedicure, alongamento
- Estética: maquiagem, design de sobrancelhas, massagens

Temos três profissionais especializadas: Ana (cabelos), Beatriz (tratamentos) e Carla (unhas).
Nossos horários disponíveis são: 10h, 11h, 14h e 16h.`

// Static informational payloads served by the info submenu. Generated here,
// outside the conversation engine, so the engine never owns presentation text
// for catalog data.

// ServiceCatalog renders the full service list.
func ServiceCatalog() string {
	var b strings.Builder
	b.WriteString("Nossos serviços:\n")
	for _, area := range []string{"Cabelo", "Unhas", "Estética"} {
		fmt.Fprintf(&b, "- %s: %s\n", area, strings.Join(Services[area], ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// PackageList renders the promotional packages.
func PackageList() string {
	return strings.Join([]string{
		"Pacotes do mês:",
		"- Dia da Noiva: cabelo + maquiagem + unhas",
		"- Renovação: corte + tratamento + design de sobrancelhas",
		"- Spa das Mãos: manicure + alongamento",
	}, "\n")
}

// PriceTable renders the reference price table.
func PriceTable() string {
	return strings.Join([]string{
		"Tabela de preços (a partir de):",
		"- Corte: R$ 80",
		"- Coloração: R$ 150",
		"- Manicure: R$ 40",
		"- Pedicure: R$ 50",
		"- Maquiagem: R$ 120",
		"- Massagem: R$ 100",
	}, "\n")
}
