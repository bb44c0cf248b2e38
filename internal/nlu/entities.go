package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"core/internal/model"
)

// Entity extraction is a fixed battery of independent rules over the raw
// message. Each rule either fills its slot or leaves it absent; extraction
// never fails. The address and commune rules share the "en" anchor word, so
// their precedence is pinned explicitly: the bare "en" fallback only assigns
// a commune when no address anchor matched (see resolveLocation).

// propertyTypeSynonyms maps user wording to the canonical property type.
// First matching synonym wins.
var propertyTypeSynonyms = []struct {
	keyword   string
	canonical string
}{
	{"departamento", "Departamento"},
	{"depto", "Departamento"},
	{"dpto", "Departamento"},
	{"casa", "Casa"},
	{"oficina", "Oficina"},
	{"local comercial", "Local Comercial"},
	{"local", "Local Comercial"},
	{"bodega", "Bodega"},
	{"estacionamiento", "Estacionamiento"},
	{"parcela", "Parcela"},
	{"terreno", "Terreno"},
	{"sitio", "Terreno"},
}

// amenityKeywords maps message wording to amenity flags. Unlike property
// types these are not mutually exclusive: every match is applied.
var amenityKeywords = []struct {
	keyword string
	flag    string
}{
	{"estacionamiento", "estacionamiento"},
	{"bodega", "bodega"},
	{"piscina", "piscina"},
	{"terraza", "terraza"},
	{"balcon", "terraza"},
	{"balcón", "terraza"},
	{"amoblado", "amoblado"},
	{"amueblado", "amoblado"},
	{"quincho", "quincho"},
	{"gimnasio", "gimnasio"},
	{"mascotas", "mascotas"},
	{"calefaccion", "calefaccion"},
	{"calefacción", "calefaccion"},
}

var (
	bedroomsRe  = regexp.MustCompile(`(\d+)\s*(?:dormitorios?|habitaci(?:ones|ón|on)|piezas?)`)
	bathroomsRe = regexp.MustCompile(`(\d+)\s*(?:baños?|banos?)`)

	// Price tokens: "$1.200.000", "450.000", "700k", or a bare run of five
	// or more digits. Small bare integers are left alone so bedroom and
	// bathroom counts are never mistaken for prices.
	priceRe = regexp.MustCompile(`\$\s*[\d.,]+|\b\d{1,3}(?:[.,]\d{3})+\b|\b\d+\s*k\b|\b\d{5,}\b`)

	addressRe       = regexp.MustCompile(`(?i)(?:ubicad[oa]\s+en|direcci[oó]n(?:\s+es)?:?)\s+([^,.;\n]+)`)
	communeRe       = regexp.MustCompile(`(?i)comuna\s+(?:de\s+)?([^,.;\n]+)`)
	communeFallback = regexp.MustCompile(`(?i)\ben\s+([^,.;\n]+)`)
	todayKeywordRe  = regexp.MustCompile(`\bhoy\b`)
)

// ExtractEntities pulls every recognizable slot out of a free-text message.
// now anchors the relative-date resolution ("hoy"/"mañana"); extraction is
// otherwise a pure function of the message.
func ExtractEntities(message string, now time.Time) *model.Entities {
	normalized := strings.ToLower(message)
	entities := &model.Entities{}

	extractPropertyType(normalized, entities)
	extractCounts(normalized, entities)
	extractPrices(normalized, entities)
	extractAmenities(normalized, entities)
	resolveLocation(message, entities)
	resolveDate(normalized, now, entities)

	return entities
}

func extractPropertyType(normalized string, entities *model.Entities) {
	for _, syn := range propertyTypeSynonyms {
		if strings.Contains(normalized, syn.keyword) {
			canonical := syn.canonical
			entities.Tipo = &canonical
			return
		}
	}
}

func extractCounts(normalized string, entities *model.Entities) {
	if m := bedroomsRe.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			entities.Habitaciones = &n
		}
	}
	if m := bathroomsRe.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			entities.Banos = &n
		}
	}
}

// extractPrices finds up to two price tokens and assigns them by context:
// an "arriendo"/"alquiler" keyword routes the first token to the rental
// price, a "venta" keyword to the sale price. With no keyword the first
// token defaults to rental and a second one, if present, to sale. This is a
// best-effort heuristic, not a guaranteed classification.
func extractPrices(normalized string, entities *model.Entities) {
	tokens := priceRe.FindAllString(normalized, 2)
	if len(tokens) == 0 {
		return
	}

	prices := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		if v, ok := parsePriceToken(tok); ok {
			prices = append(prices, v)
		}
	}
	if len(prices) == 0 {
		return
	}

	hasArriendo := strings.Contains(normalized, "arriendo") || strings.Contains(normalized, "alquiler")
	hasVenta := strings.Contains(normalized, "venta")

	switch {
	case hasArriendo && hasVenta:
		entities.PrecioArriendo = &prices[0]
		if len(prices) > 1 {
			entities.PrecioVenta = &prices[1]
		}
	case hasVenta:
		entities.PrecioVenta = &prices[0]
	case hasArriendo:
		entities.PrecioArriendo = &prices[0]
	default:
		entities.PrecioArriendo = &prices[0]
		if len(prices) > 1 {
			entities.PrecioVenta = &prices[1]
		}
	}
}

// parsePriceToken normalizes one matched token into an integer amount.
// A trailing "k" multiplies by 1000; currency symbol and thousands
// punctuation are stripped before parsing.
func parsePriceToken(token string) (int64, bool) {
	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "$"))
	multiplier := int64(1)
	if strings.HasSuffix(t, "k") {
		multiplier = 1000
		t = strings.TrimSpace(strings.TrimSuffix(t, "k"))
	}
	t = strings.NewReplacer(".", "", ",", "").Replace(t)
	if t == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, false
	}
	return v * multiplier, true
}

func extractAmenities(normalized string, entities *model.Entities) {
	for _, am := range amenityKeywords {
		if strings.Contains(normalized, am.keyword) {
			if entities.Amenidades == nil {
				entities.Amenidades = make(map[string]bool)
			}
			entities.Amenidades[am.flag] = true
		}
	}
}

// resolveLocation runs the address rule first, then the commune rules.
// Precedence for the shared "en" anchor: when an explicit address anchor
// ("ubicado en", "dirección") matched, the bare "en" fallback is skipped and
// only the explicit "comuna" anchor can still fill the commune slot.
func resolveLocation(message string, entities *model.Entities) {
	addressMatched := false
	if m := addressRe.FindStringSubmatch(message); m != nil {
		if fragment := strings.TrimSpace(m[1]); fragment != "" {
			entities.Direccion = &fragment
			addressMatched = true
		}
	}

	if m := communeRe.FindStringSubmatch(message); m != nil {
		if fragment := strings.TrimSpace(m[1]); fragment != "" {
			entities.Comuna = &fragment
			return
		}
	}
	if addressMatched {
		return
	}
	if m := communeFallback.FindStringSubmatch(message); m != nil {
		if fragment := strings.TrimSpace(m[1]); fragment != "" {
			entities.Comuna = &fragment
		}
	}
}

// resolveDate recognizes "hoy" and "mañana" only; anything else is left for
// the user to spell out. Dates are emitted as ISO calendar dates.
func resolveDate(normalized string, now time.Time, entities *model.Entities) {
	switch {
	case strings.Contains(normalized, "mañana") || strings.Contains(normalized, "manana"):
		fecha := now.AddDate(0, 0, 1).Format("2006-01-02")
		entities.Fecha = &fecha
	case todayKeywordRe.MatchString(normalized):
		fecha := now.Format("2006-01-02")
		entities.Fecha = &fecha
	}
}
