// Package salon holds the Espaço Diva catalog: the professional roster, the
// service list, and the fixed time-slot catalog the registry books against.
package salon

import "strings"

// Professional describes one member of the roster.
type Professional struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Roster is the fixed set of professionals, in presentation order.
var Roster = []Professional{
	{Name: "Ana", Specialty: "cabelos"},
	{Name: "Beatriz", Specialty: "tratamentos"},
	{Name: "Carla", Specialty: "unhas"},
}

// SlotCatalog is the ordered list of recognized time-of-day values. The order
// is a fixed priority list, not lexicographic.
var SlotCatalog = []string{"10:00", "11:00", "14:00", "16:00"}

// Services groups the offered services by area.
var Services = map[string][]string{
	"Cabelo":   {"cortes", "coloração", "tratamentos"},
	"Unhas":    {"manicure", "pedicure", "alongamento"},
	"Estética": {"maquiagem", "design de sobrancelhas", "massagens"},
}

// ResolveProfessional matches free text against the roster. Prefix matches
// win ("Car" resolves to "Carla"); a roster name appearing anywhere in the
// text also counts ("quero a Ana" resolves to "Ana"). Returns the canonical
// name and whether a match was found.
func ResolveProfessional(text string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return "", false
	}
	for _, p := range Roster {
		lower := strings.ToLower(p.Name)
		if strings.HasPrefix(lower, needle) || strings.Contains(needle, lower) {
			return p.Name, true
		}
	}
	return "", false
}

// KnownSlot reports whether slot is part of the catalog.
func KnownSlot(slot string) bool {
	for _, s := range SlotCatalog {
		if s == slot {
			return true
		}
	}
	return false
}

// RosterNames returns the roster names in presentation order.
func RosterNames() []string {
	names := make([]string, len(Roster))
	for i, p := range Roster {
		names[i] = p.Name
	}
	return names
}
