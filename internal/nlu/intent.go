package nlu

import (
	"strings"

	"core/internal/model"
)

// lexicon maps each intent to its trigger keywords. Order matters: detection
// is first-match-wins over this declaration order, so a message mixing
// keywords from several intents resolves to the earliest entry. Keywords are
// matched as lowercase substrings.
var lexicon = []struct {
	intent   model.Intent
	keywords []string
}{
	{model.IntentPropertyRegister, []string{
		"publicar", "registrar", "nueva propiedad", "agregar propiedad",
		"subir propiedad", "quiero vender", "quiero arrendar",
	}},
	{model.IntentShowVisits, []string{
		"visitas", "agenda", "agendamiento",
	}},
	{model.IntentCancelVisit, []string{
		"cancelar", "anular", "suspender",
	}},
	{model.IntentShowReport, []string{
		"informe", "reporte", "resumen", "estadistica", "estadística",
	}},
}

// DetectIntent classifies a raw message into exactly one intent. Messages
// with no lexicon match fall back to general_inquiry; that is the normal
// terminal case of the classification, not an error.
func DetectIntent(message string) model.Intent {
	normalized := strings.ToLower(message)
	for _, entry := range lexicon {
		for _, keyword := range entry.keywords {
			if strings.Contains(normalized, keyword) {
				return entry.intent
			}
		}
	}
	return model.IntentGeneralInquiry
}
