package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/espacodiva/bellabot/internal/salon"
)

// spelledHours is the fixed lexicon of spelled-out hours clients actually use.
// "duas" and "quatro" mean the afternoon slots; the salon has no 02:00 or
// 04:00 opening.
var spelledHours = map[string]string{
	"dez":      "10:00",
	"onze":     "11:00",
	"duas":     "14:00",
	"quatro":   "16:00",
	"meio dia": "12:00",
	"meio-dia": "12:00",
}

var (
	clockPattern = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))?\s*(?:h|hs|hrs|horas)?$`)
	digitPattern = regexp.MustCompile(`\d{1,2}`)
)

// Normalize converts a free-form time expression into a canonical "HH:MM"
// slot value. It returns ok=false when no interpretation exists; the caller
// must re-prompt, never guess.
func Normalize(raw string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}

	// Leading prepositions: "às 14", "as 14", "a 14".
	for _, prefix := range []string{"às ", "as ", "a "} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			break
		}
	}

	// Trailing period markers: "2 da tarde" means 14, not 02.
	afternoon := false
	for _, suffix := range []string{" da tarde", " de tarde", " da noite", " de noite"} {
		if strings.HasSuffix(text, suffix) {
			afternoon = true
			text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
			break
		}
	}

	for spelled, slot := range spelledHours {
		if strings.ContainsAny(spelled, " -") {
			if strings.Contains(text, spelled) {
				return slot, true
			}
			continue
		}
		for _, word := range strings.Fields(text) {
			if word == spelled {
				return slot, true
			}
		}
	}

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour > 23 {
			return "", false
		}
		minute := 0
		if m[2] != "" {
			minute, err = strconv.Atoi(m[2])
			if err != nil || minute > 59 {
				return "", false
			}
		}
		if afternoon && hour < 12 {
			hour += 12
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	// Last resort: a digit sequence inside a noisier phrase ("lá pelas 14hrs")
	// matched against the slot catalog.
	for _, digits := range digitPattern.FindAllString(text, -1) {
		hour, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if afternoon && hour < 12 {
			hour += 12
		}
		prefix := fmt.Sprintf("%02d:", hour)
		for _, slot := range salon.SlotCatalog {
			if strings.HasPrefix(slot, prefix) {
				return slot, true
			}
		}
	}

	return "", false
}
