package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"core/internal/model"
	"core/internal/session"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeRepo struct {
	mu sync.Mutex

	visits    []model.Visit
	visitsErr error
	lastDate  *time.Time
	lastLimit int

	createdID  int64
	createErr  error
	lastCreate *model.Entities

	logged []*model.AssistantLog
}

func (f *fakeRepo) UpcomingVisits(ctx context.Context, date *time.Time, limit int) ([]model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDate = date
	f.lastLimit = limit
	if f.visitsErr != nil {
		return nil, f.visitsErr
	}
	return f.visits, nil
}

func (f *fakeRepo) CreateProperty(ctx context.Context, draft *model.Entities) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCreate = draft
	if f.createErr != nil {
		return 0, f.createErr
	}
	return f.createdID, nil
}

func (f *fakeRepo) LogConversation(ctx context.Context, entry *model.AssistantLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logged = append(f.logged, entry)
	return nil
}

type fakeFeed struct {
	mu     sync.Mutex
	events []model.ActivityEvent
}

func (f *fakeFeed) Publish(event model.ActivityEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeFeed) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestAssistant(repo *fakeRepo) (*Assistant, *fakeFeed, *session.Store) {
	clock := &fakeClock{now: testNow}
	sessions := session.NewStore(30*time.Minute, clock)
	feed := &fakeFeed{}
	assistant := NewAssistant(repo, sessions, feed, clock, 10, 5*time.Second)
	return assistant, feed, sessions
}

func TestHandleMessage_RegistrationAsksForFirstMissingSlot(t *testing.T) {
	assistant, _, _ := newTestAssistant(&fakeRepo{})

	resp := assistant.HandleMessage(context.Background(), &model.ChatRequest{
		Message:   "quiero publicar un departamento de 2 dormitorios y 1 baño",
		SessionID: "s1",
	})

	if resp.Intent != model.IntentPropertyRegister {
		t.Errorf("Intent = %q, want %q", resp.Intent, model.IntentPropertyRegister)
	}
	if resp.Entities.Tipo == nil || *resp.Entities.Tipo != "Departamento" {
		t.Errorf("Tipo = %v, want Departamento", resp.Entities.Tipo)
	}
	if resp.Entities.Habitaciones == nil || *resp.Entities.Habitaciones != 2 {
		t.Errorf("Habitaciones = %v, want 2", resp.Entities.Habitaciones)
	}
	if resp.Entities.Banos == nil || *resp.Entities.Banos != 1 {
		t.Errorf("Banos = %v, want 1", resp.Entities.Banos)
	}
	// Type, bedrooms and bathrooms are filled; the slot order makes the
	// address the first missing one.
	if resp.NeedsInfo != "direccion" {
		t.Errorf("NeedsInfo = %q, want direccion", resp.NeedsInfo)
	}
	if !strings.Contains(resp.Reply, "dirección") {
		t.Errorf("Reply = %q, want a question about the address", resp.Reply)
	}
	if resp.ReadyForConfirmation {
		t.Error("ReadyForConfirmation should not be set with missing slots")
	}
}

func TestHandleMessage_RegistrationFullFlow(t *testing.T) {
	assistant, feed, _ := newTestAssistant(&fakeRepo{})
	ctx := context.Background()
	sid := "flow"

	steps := []struct {
		message   string
		needsInfo string
	}{
		{"quiero publicar un depto", "direccion"},
		{"ubicado en Avenida Italia 950", "comuna"},
		{"comuna de Providencia", "habitaciones"},
		{"tiene 3 dormitorios", "banos"},
		{"2 baños", "precio"},
	}

	for _, step := range steps {
		resp := assistant.HandleMessage(ctx, &model.ChatRequest{Message: step.message, SessionID: sid})
		if resp.NeedsInfo != step.needsInfo {
			t.Fatalf("after %q: NeedsInfo = %q, want %q (reply: %q)",
				step.message, resp.NeedsInfo, step.needsInfo, resp.Reply)
		}
	}

	resp := assistant.HandleMessage(ctx, &model.ChatRequest{Message: "arriendo 500k", SessionID: sid})
	if !resp.ReadyForConfirmation {
		t.Fatalf("expected ReadyForConfirmation after final slot, got reply %q", resp.Reply)
	}
	draft := resp.PropertyData
	if draft == nil {
		t.Fatal("PropertyData missing on confirmation-ready response")
	}
	if draft.Tipo == nil || *draft.Tipo != "Departamento" {
		t.Errorf("draft Tipo = %v, want Departamento", draft.Tipo)
	}
	if draft.Direccion == nil || *draft.Direccion != "Avenida Italia 950" {
		t.Errorf("draft Direccion = %v, want Avenida Italia 950", draft.Direccion)
	}
	if draft.Comuna == nil || *draft.Comuna != "Providencia" {
		t.Errorf("draft Comuna = %v, want Providencia", draft.Comuna)
	}
	if draft.PrecioArriendo == nil || *draft.PrecioArriendo != 500000 {
		t.Errorf("draft PrecioArriendo = %v, want 500000", draft.PrecioArriendo)
	}

	types := feed.types()
	found := false
	for _, tp := range types {
		if tp == model.ActivityDraftReady {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s on the activity feed, got %v", model.ActivityDraftReady, types)
	}
}

func TestHandleMessage_ShowVisitsFiltersByResolvedDate(t *testing.T) {
	repo := &fakeRepo{
		visits: []model.Visit{
			{
				ID:              7,
				ScheduledAt:     time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC),
				PropertyTitle:   "Depto Ñuñoa Centro",
				PropertyAddress: "Irarrázaval 2300",
				ProspectName:    "María Pérez",
			},
		},
	}
	assistant, _, _ := newTestAssistant(repo)

	resp := assistant.HandleMessage(context.Background(), &model.ChatRequest{
		Message:   "mostrame las visitas de mañana",
		SessionID: "s1",
	})

	if resp.Intent != model.IntentShowVisits {
		t.Fatalf("Intent = %q, want %q", resp.Intent, model.IntentShowVisits)
	}
	if resp.Entities.Fecha == nil || *resp.Entities.Fecha != "2025-03-15" {
		t.Errorf("Fecha = %v, want 2025-03-15 (tomorrow)", resp.Entities.Fecha)
	}
	if repo.lastDate == nil {
		t.Fatal("UpcomingVisits was not filtered by the resolved date")
	}
	if got := repo.lastDate.Format("2006-01-02"); got != "2025-03-15" {
		t.Errorf("read filtered by %s, want 2025-03-15", got)
	}
	if repo.lastLimit != 10 {
		t.Errorf("read limited to %d, want 10", repo.lastLimit)
	}
	if len(resp.Visits) != 1 {
		t.Fatalf("Visits = %d entries, want 1", len(resp.Visits))
	}
	if !strings.Contains(resp.Reply, "Depto Ñuñoa Centro") || !strings.Contains(resp.Reply, "María Pérez") {
		t.Errorf("Reply = %q, want visit summary with property and prospect", resp.Reply)
	}
}

func TestHandleMessage_ShowVisitsWithoutDate(t *testing.T) {
	repo := &fakeRepo{}
	assistant, _, _ := newTestAssistant(repo)

	resp := assistant.HandleMessage(context.Background(), &model.ChatRequest{
		Message:   "ver mis visitas",
		SessionID: "s1",
	})

	if repo.lastDate != nil {
		t.Errorf("expected unfiltered read, got date %v", repo.lastDate)
	}
	if !strings.Contains(resp.Reply, "No tienes visitas") {
		t.Errorf("Reply = %q, want empty-agenda message", resp.Reply)
	}
}

func TestHandleMessage_VisitsReadFailureIsContained(t *testing.T) {
	repo := &fakeRepo{visitsErr: errors.New("connection refused")}
	assistant, _, _ := newTestAssistant(repo)

	resp := assistant.HandleMessage(context.Background(), &model.ChatRequest{
		Message:   "mostrame las visitas",
		SessionID: "s1",
	})

	if resp == nil {
		t.Fatal("HandleMessage must always produce a response")
	}
	if len(resp.Visits) != 0 {
		t.Errorf("Visits = %v, want none on failure", resp.Visits)
	}
	if strings.Contains(resp.Reply, "connection refused") {
		t.Errorf("Reply leaks the underlying error: %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "Inténtalo de nuevo") {
		t.Errorf("Reply = %q, want generic retry message", resp.Reply)
	}
}

func TestHandleMessage_ContextAccumulatesAcrossTurns(t *testing.T) {
	assistant, _, sessions := newTestAssistant(&fakeRepo{})
	ctx := context.Background()
	sid := "acc"

	assistant.HandleMessage(ctx, &model.ChatRequest{Message: "depto en Ñuñoa", SessionID: sid})
	assistant.HandleMessage(ctx, &model.ChatRequest{Message: "2 dormitorios, arriendo 500k", SessionID: sid})

	merged := sessions.GetOrCreate(sid)
	if merged.Tipo == nil || *merged.Tipo != "Departamento" {
		t.Errorf("Tipo = %v, want Departamento from first turn", merged.Tipo)
	}
	if merged.Comuna == nil || *merged.Comuna != "Ñuñoa" {
		t.Errorf("Comuna = %v, want Ñuñoa from first turn", merged.Comuna)
	}
	if merged.Habitaciones == nil || *merged.Habitaciones != 2 {
		t.Errorf("Habitaciones = %v, want 2 from second turn", merged.Habitaciones)
	}
	if merged.PrecioArriendo == nil || *merged.PrecioArriendo != 500000 {
		t.Errorf("PrecioArriendo = %v, want 500000 from second turn", merged.PrecioArriendo)
	}
}

func TestHandleMessage_CancelAndReport(t *testing.T) {
	assistant, _, _ := newTestAssistant(&fakeRepo{})
	ctx := context.Background()

	resp := assistant.HandleMessage(ctx, &model.ChatRequest{Message: "quiero cancelar una visita", SessionID: "c1"})
	if resp.Intent != model.IntentCancelVisit {
		t.Errorf("Intent = %q, want %q", resp.Intent, model.IntentCancelVisit)
	}
	if resp.NeedsInfo != "visita" {
		t.Errorf("NeedsInfo = %q, want visita", resp.NeedsInfo)
	}

	resp = assistant.HandleMessage(ctx, &model.ChatRequest{Message: "dame el informe mensual", SessionID: "c2"})
	if resp.Intent != model.IntentShowReport {
		t.Errorf("Intent = %q, want %q", resp.Intent, model.IntentShowReport)
	}
	if resp.Reply == "" {
		t.Error("report intent must still produce a reply")
	}
}

func TestConfirmDraft(t *testing.T) {
	repo := &fakeRepo{createdID: 42}
	assistant, feed, sessions := newTestAssistant(repo)
	ctx := context.Background()

	// Incomplete draft is refused without touching the repository
	resp, err := assistant.ConfirmDraft(ctx, "incomplete")
	if err != nil {
		t.Fatalf("ConfirmDraft() error = %v", err)
	}
	if resp.Success {
		t.Fatal("incomplete draft must not be confirmable")
	}
	if repo.lastCreate != nil {
		t.Fatal("incomplete draft reached the repository")
	}

	// Fill every required slot, then confirm
	tipo := "Casa"
	direccion := "Los Leones 45"
	comuna := "Providencia"
	habitaciones := 3
	banos := 2
	precio := int64(650000)
	sessions.Merge("done", &model.Entities{
		Tipo:           &tipo,
		Direccion:      &direccion,
		Comuna:         &comuna,
		Habitaciones:   &habitaciones,
		Banos:          &banos,
		PrecioArriendo: &precio,
	})

	resp, err = assistant.ConfirmDraft(ctx, "done")
	if err != nil {
		t.Fatalf("ConfirmDraft() error = %v", err)
	}
	if !resp.Success || resp.PropertyID != 42 {
		t.Errorf("ConfirmDraft() = %+v, want success with id 42", resp)
	}
	if repo.lastCreate == nil || *repo.lastCreate.Tipo != "Casa" {
		t.Errorf("repository received draft %+v, want the session context", repo.lastCreate)
	}

	confirmed := false
	for _, tp := range feed.types() {
		if tp == model.ActivityDraftConfirmed {
			confirmed = true
		}
	}
	if !confirmed {
		t.Error("draft confirmation should publish an activity event")
	}
}

func TestConfirmDraft_RepositoryFailure(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("insert failed")}
	assistant, _, sessions := newTestAssistant(repo)

	tipo := "Casa"
	direccion := "Los Leones 45"
	comuna := "Providencia"
	habitaciones := 3
	banos := 2
	precio := int64(650000)
	sessions.Merge("s1", &model.Entities{
		Tipo:           &tipo,
		Direccion:      &direccion,
		Comuna:         &comuna,
		Habitaciones:   &habitaciones,
		Banos:          &banos,
		PrecioArriendo: &precio,
	})

	if _, err := assistant.ConfirmDraft(context.Background(), "s1"); err == nil {
		t.Error("expected data-store failure to surface as an error")
	}
}
