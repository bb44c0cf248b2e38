package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"core/internal/model"
	"core/internal/nlu"
	"core/internal/session"

	"github.com/google/uuid"
)

// Repository is the external data store the composer reads and writes.
type Repository interface {
	UpcomingVisits(ctx context.Context, date *time.Time, limit int) ([]model.Visit, error)
	CreateProperty(ctx context.Context, draft *model.Entities) (int64, error)
	LogConversation(ctx context.Context, entry *model.AssistantLog) error
}

// Publisher receives activity events for the back-office live feed.
type Publisher interface {
	Publish(event model.ActivityEvent)
}

// registrationSlot is one required field of a property registration, checked
// in the declared order: the first unfilled slot drives the next question.
type registrationSlot struct {
	name     string
	question string
	filled   func(*model.Entities) bool
}

var registrationSlots = []registrationSlot{
	{
		name:     "tipo",
		question: "¿Qué tipo de propiedad quieres publicar? (casa, departamento, oficina...)",
		filled:   func(e *model.Entities) bool { return e.Tipo != nil },
	},
	{
		name:     "direccion",
		question: "¿Cuál es la dirección de la propiedad?",
		filled:   func(e *model.Entities) bool { return e.Direccion != nil },
	},
	{
		name:     "comuna",
		question: "¿En qué comuna se encuentra?",
		filled:   func(e *model.Entities) bool { return e.Comuna != nil },
	},
	{
		name:     "habitaciones",
		question: "¿Cuántos dormitorios tiene?",
		filled:   func(e *model.Entities) bool { return e.Habitaciones != nil },
	},
	{
		name:     "banos",
		question: "¿Cuántos baños tiene?",
		filled:   func(e *model.Entities) bool { return e.Banos != nil },
	},
	{
		name:     "precio",
		question: "¿Cuál es el precio? Indica si es de arriendo o de venta.",
		filled: func(e *model.Entities) bool {
			return e.PrecioArriendo != nil || e.PrecioVenta != nil
		},
	},
}

// Assistant composes replies for the embedded chat assistant: it classifies
// each message, extracts entities, folds them into the session context, and
// answers per intent.
type Assistant struct {
	repo         Repository
	sessions     *session.Store
	feed         Publisher
	clock        session.Clock
	visitsLimit  int
	queryTimeout time.Duration
}

// NewAssistant creates the assistant service. feed may be nil when no
// activity hub is wired (e.g. in tests).
func NewAssistant(
	repo Repository,
	sessions *session.Store,
	feed Publisher,
	clock session.Clock,
	visitsLimit int,
	queryTimeout time.Duration,
) *Assistant {
	return &Assistant{
		repo:         repo,
		sessions:     sessions,
		feed:         feed,
		clock:        clock,
		visitsLimit:  visitsLimit,
		queryTimeout: queryTimeout,
	}
}

// HandleMessage processes one inbound message and always produces a reply.
// External failures are contained here: a failed visits read yields a
// generic retry reply, never an error to the caller.
func (a *Assistant) HandleMessage(ctx context.Context, req *model.ChatRequest) *model.ChatResponse {
	start := time.Now()

	intent := nlu.DetectIntent(req.Message)
	extracted := nlu.ExtractEntities(req.Message, a.clock.Now())
	merged := a.sessions.Merge(req.SessionID, extracted)

	resp := &model.ChatResponse{
		Intent:   intent,
		Entities: extracted,
	}

	switch intent {
	case model.IntentPropertyRegister:
		a.composeRegistration(merged, resp)
	case model.IntentShowVisits:
		a.composeVisits(ctx, merged, resp)
	case model.IntentCancelVisit:
		resp.NeedsInfo = "visita"
		resp.Reply = "Para cancelar una visita necesito saber cuál. Indícame la propiedad o la fecha de la visita agendada."
	case model.IntentShowReport:
		resp.Reply = "Los informes detallados están disponibles en la sección Reportes del panel. Desde aquí aún no puedo generarlos."
	default:
		// Follow-up answers during slot-filling ("Avenida Italia 950") carry
		// no intent keyword; keep the registration going when one is open.
		if registrationStarted(merged) {
			a.composeRegistration(merged, resp)
		} else {
			resp.Reply = "Puedo ayudarte a publicar propiedades, revisar tus visitas agendadas o cancelar una visita. ¿Qué necesitas?"
		}
	}

	a.logTurn(req, intent, extracted, time.Since(start))
	a.publish(model.ActivityMessageHandled, req.SessionID, map[string]interface{}{
		"intent": intent,
	})
	if resp.ReadyForConfirmation {
		a.publish(model.ActivityDraftReady, req.SessionID, resp.PropertyData)
	}

	return resp
}

// registrationStarted reports whether any required registration slot is
// already filled in the session context.
func registrationStarted(e *model.Entities) bool {
	for _, slot := range registrationSlots {
		if slot.filled(e) {
			return true
		}
	}
	return false
}

// composeRegistration walks the required slots in order and asks for the
// first missing one. Once every slot is filled it hands back the accumulated
// draft; validating the draft is the caller's responsibility.
func (a *Assistant) composeRegistration(merged *model.Entities, resp *model.ChatResponse) {
	for _, slot := range registrationSlots {
		if !slot.filled(merged) {
			resp.NeedsInfo = slot.name
			resp.Reply = slot.question
			return
		}
	}
	resp.ReadyForConfirmation = true
	resp.PropertyData = merged
	resp.Reply = "Tengo todos los datos de la propiedad. ¿Confirmas la publicación?"
}

func (a *Assistant) composeVisits(ctx context.Context, merged *model.Entities, resp *model.ChatResponse) {
	qctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	var date *time.Time
	if merged.Fecha != nil {
		if d, err := time.Parse("2006-01-02", *merged.Fecha); err == nil {
			date = &d
		}
	}

	visits, err := a.repo.UpcomingVisits(qctx, date, a.visitsLimit)
	if err != nil {
		log.Printf("Upcoming visits read failed: %v", err)
		resp.Reply = "No pude consultar tus visitas en este momento. Inténtalo de nuevo en unos minutos."
		return
	}

	resp.Visits = visits
	resp.Reply = formatVisits(visits, date)
}

func formatVisits(visits []model.Visit, date *time.Time) string {
	if len(visits) == 0 {
		if date != nil {
			return fmt.Sprintf("No tienes visitas agendadas para el %s.", date.Format("02/01/2006"))
		}
		return "No tienes visitas agendadas próximamente."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tienes %d visita(s) agendada(s):\n", len(visits))
	for _, v := range visits {
		fmt.Fprintf(&b, "• %s — %s, %s", v.ScheduledAt.Format("02/01 15:04"), v.PropertyTitle, v.PropertyAddress)
		if v.ProspectName != "" {
			fmt.Fprintf(&b, " (con %s)", v.ProspectName)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ConfirmDraft persists the property draft accumulated in a session. It
// returns a client-addressable refusal when required slots are still missing
// and an error only on data-store failure.
func (a *Assistant) ConfirmDraft(ctx context.Context, sessionID string) (*model.ConfirmResponse, error) {
	merged := a.sessions.GetOrCreate(sessionID)
	for _, slot := range registrationSlots {
		if !slot.filled(merged) {
			return &model.ConfirmResponse{
				Success: false,
				Message: fmt.Sprintf("Falta completar: %s", slot.name),
			}, nil
		}
	}

	qctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	id, err := a.repo.CreateProperty(qctx, merged)
	if err != nil {
		return nil, err
	}

	a.publish(model.ActivityDraftConfirmed, sessionID, map[string]interface{}{
		"property_id": id,
	})
	return &model.ConfirmResponse{
		Success:    true,
		PropertyID: id,
		Message:    "Propiedad registrada como borrador",
	}, nil
}

// logTurn records the handled message. The write is fire-and-forget: the
// analytics insert must never delay or fail a reply.
func (a *Assistant) logTurn(req *model.ChatRequest, intent model.Intent, extracted *model.Entities, took time.Duration) {
	entry := &model.AssistantLog{
		ID:             uuid.NewString(),
		SessionID:      req.SessionID,
		Message:        req.Message,
		Intent:         intent,
		Entities:       entitiesLogMap(extracted),
		ResponseTimeMs: int(took.Milliseconds()),
	}
	go func() {
		if err := a.repo.LogConversation(context.Background(), entry); err != nil {
			log.Printf("Failed to log conversation: %v", err)
		}
	}()
}

func (a *Assistant) publish(eventType, sessionID string, payload interface{}) {
	if a.feed == nil {
		return
	}
	a.feed.Publish(model.ActivityEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		At:        a.clock.Now(),
	})
}

func entitiesLogMap(e *model.Entities) model.JSONMap {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	var m model.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
