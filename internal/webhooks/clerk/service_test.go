package clerkwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/angelmondragon/storefront-gateway/internal/users"
	"github.com/angelmondragon/storefront-gateway/pkg/db/models"
	"github.com/angelmondragon/storefront-gateway/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-gateway/pkg/errors"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
)

type fakeUsers struct {
	created []users.CreateUserDTO
	err     error
}

func (f *fakeUsers) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, dto)
	return dto.ToModel(), nil
}

func strPtr(s string) *string { return &s }

func userCreatedEvent(t *testing.T, payload IdentityPayload) Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Event{Type: EventUserCreated, Object: "event", Data: raw}
}

func basePayload() IdentityPayload {
	return IdentityPayload{
		ID: "user_2abc",
		EmailAddresses: []EmailAddress{
			{ID: "idn_secondary", EmailAddress: "old@example.com"},
			{ID: "idn_primary", EmailAddress: "ada@example.com"},
		},
		PrimaryEmailAddressID: strPtr("idn_primary"),
		FirstName:             strPtr("Ada"),
		LastName:              strPtr("Lovelace"),
	}
}

func newTestService(t *testing.T, repo *fakeUsers) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Users: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without a users repo")
	}
}

func TestHandleUserCreatedPersistsPrimaryEmail(t *testing.T) {
	repo := &fakeUsers{}
	svc := newTestService(t, repo)

	if err := svc.HandleEvent(context.Background(), userCreatedEvent(t, basePayload())); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(repo.created))
	}

	got := repo.created[0]
	want := users.CreateUserDTO{
		ID:           "user_2abc",
		Email:        "ada@example.com",
		Name:         "Ada Lovelace",
		Role:         enums.UserRoleUser,
		IsSubscribed: false,
	}
	if got != want {
		t.Fatalf("unexpected create payload: got %+v want %+v", got, want)
	}
}

func TestHandleUserCreatedLogsProvisionedUser(t *testing.T) {
	buf := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Users:  &fakeUsers{},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: buf}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), userCreatedEvent(t, basePayload())); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	var entry struct {
		Message string         `json:"message"`
		User    *users.UserDTO `json:"user"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v; entry=%s", err, buf.String())
	}
	if entry.Message != "user provisioned" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if entry.User == nil || entry.User.ID != "user_2abc" || entry.User.Email != "ada@example.com" || entry.User.Role != "USER" {
		t.Fatalf("expected provisioned user in log entry, got %s", buf.String())
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	cases := []struct {
		name    string
		payload IdentityPayload
		want    string
	}{
		{name: "first and last", payload: IdentityPayload{FirstName: strPtr("Ada"), LastName: strPtr("Lovelace")}, want: "Ada Lovelace"},
		{name: "first only", payload: IdentityPayload{FirstName: strPtr("Ada"), LastName: strPtr("")}, want: "Ada"},
		{name: "last only", payload: IdentityPayload{LastName: strPtr("Lovelace")}, want: "Lovelace"},
		{name: "username", payload: IdentityPayload{FirstName: strPtr(""), Username: strPtr("ada99")}, want: "ada99"},
		{name: "nothing", payload: IdentityPayload{Username: strPtr("")}, want: "Anonymous"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.payload.DisplayName(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHandleUserCreatedWithoutPrimaryEmail(t *testing.T) {
	cases := map[string]func(p *IdentityPayload){
		"no primary id":      func(p *IdentityPayload) { p.PrimaryEmailAddressID = nil },
		"primary id unknown": func(p *IdentityPayload) { p.PrimaryEmailAddressID = strPtr("idn_missing") },
		"no addresses":       func(p *IdentityPayload) { p.EmailAddresses = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &fakeUsers{}
			svc := newTestService(t, repo)
			payload := basePayload()
			mutate(&payload)

			err := svc.HandleEvent(context.Background(), userCreatedEvent(t, payload))
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if msg := pkgerrors.As(err).Message(); msg != "no primary email found" {
				t.Fatalf("unexpected message %q", msg)
			}
			if len(repo.created) != 0 {
				t.Fatalf("expected no user created")
			}
		})
	}
}

func TestHandleUserCreatedWithoutID(t *testing.T) {
	repo := &fakeUsers{}
	svc := newTestService(t, repo)
	payload := basePayload()
	payload.ID = ""

	err := svc.HandleEvent(context.Background(), userCreatedEvent(t, payload))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := map[string]string{"id": "is required"}
	if details := pkgerrors.As(err).Details(); !reflect.DeepEqual(details, want) {
		t.Fatalf("unexpected details %#v", details)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no user created")
	}
}

func TestHandleUserCreatedConflict(t *testing.T) {
	svc := newTestService(t, &fakeUsers{err: users.ErrUserExists})

	err := svc.HandleEvent(context.Background(), userCreatedEvent(t, basePayload()))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !errors.Is(err, users.ErrUserExists) {
		t.Fatalf("expected ErrUserExists in chain, got %v", err)
	}
}

func TestHandleUserCreatedPersistenceFailure(t *testing.T) {
	svc := newTestService(t, &fakeUsers{err: errors.New("connection reset")})

	err := svc.HandleEvent(context.Background(), userCreatedEvent(t, basePayload()))
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestHandleOtherEventTypesAreNoops(t *testing.T) {
	repo := &fakeUsers{}
	svc := newTestService(t, repo)

	for _, eventType := range []string{"user.updated", "user.deleted", "session.created"} {
		if err := svc.HandleEvent(context.Background(), Event{Type: eventType, Data: json.RawMessage(`{"id":"user_1"}`)}); err != nil {
			t.Fatalf("%s: unexpected error %v", eventType, err)
		}
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no user created")
	}
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"user.created","object":"event","data":{"id":"user_1"}}`))
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.Type != EventUserCreated {
		t.Fatalf("unexpected type %q", event.Type)
	}
	if string(event.Data) != `{"id":"user_1"}` {
		t.Fatalf("unexpected data %s", event.Data)
	}

	if _, err := ParseEvent([]byte(`{"object":"event"}`)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing type, got %v", err)
	}
	if _, err := ParseEvent([]byte(`not json`)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad json, got %v", err)
	}
}
