package conversation

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"1", IntentSchedule},
		{"2", IntentInfo},
		{"3", IntentHandoff},
		{"4", IntentAppointments},
		{"0", IntentExit},
		{"menu", IntentMenu},
		{"quero agendar um horário", IntentSchedule},
		{"quero marcar com a Ana", IntentSchedule},
		{"quais os preços?", IntentInfo},
		{"quero falar com um humano", IntentHandoff},
		{"prefiro falar com atendente", IntentHandoff},
		{"meus horarios", IntentAppointments},
		{"quero ver meus horários", IntentAppointments},
		{"meus agendamentos", IntentAppointments},
		{"tchau, obrigada", IntentExit},
		{"oi!", IntentGreeting},
		{"bom dia", IntentGreeting},
		{"foi ótimo", IntentUnknown},
		{"", IntentUnknown},
		{"xyzzy", IntentUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyIntent(tc.text); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestIsMenuCommand(t *testing.T) {
	for _, text := range []string{"menu", " MENU ", "Menu"} {
		if !IsMenuCommand(text) {
			t.Errorf("IsMenuCommand(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"menus", "ver o menu", ""} {
		if IsMenuCommand(text) {
			t.Errorf("IsMenuCommand(%q) = true, want false", text)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	for _, text := range []string{"sim", "SIM", "ok", "correto", "pode ser"} {
		if !IsAffirmative(text) {
			t.Errorf("IsAffirmative(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"não", "nao", "talvez", ""} {
		if IsAffirmative(text) {
			t.Errorf("IsAffirmative(%q) = true, want false", text)
		}
	}
}

func TestIsIndecisive(t *testing.T) {
	if !IsIndecisive("não sei qual escolher") {
		t.Error("expected indecisive match")
	}
	if !IsIndecisive("estou indecisa") {
		t.Error("expected indecisive match")
	}
	if IsIndecisive("corte de cabelo") {
		t.Error("unexpected indecisive match")
	}
}
