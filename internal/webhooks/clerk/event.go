package clerkwebhook

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-gateway/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const (
	EventUserCreated = "user.created"

	anonymousName = "Anonymous"
)

// Event is the envelope of a verified identity provider webhook delivery.
type Event struct {
	Type      string          `json:"type" validate:"required"`
	Object    string          `json:"object"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EmailAddress is one entry of an identity's email list.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// IdentityPayload is the data of a user.created event.
type IdentityPayload struct {
	ID                    string         `json:"id" validate:"required"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	Username              *string        `json:"username"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ParseEvent decodes a verified request body into an Event.
func ParseEvent(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event body")
	}
	if err := validate.Struct(event); err != nil {
		return Event{}, formatValidationErrors(err)
	}
	return event, nil
}

func decodeIdentity(raw json.RawMessage) (IdentityPayload, error) {
	var payload IdentityPayload
	if len(raw) == 0 {
		return payload, pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user payload")
	}
	if err := validate.Struct(payload); err != nil {
		return payload, formatValidationErrors(err)
	}
	return payload, nil
}

// PrimaryEmail returns the address whose id matches primary_email_address_id.
func (p IdentityPayload) PrimaryEmail() (string, bool) {
	if p.PrimaryEmailAddressID == nil {
		return "", false
	}
	for _, addr := range p.EmailAddresses {
		if addr.ID == *p.PrimaryEmailAddressID && addr.EmailAddress != "" {
			return addr.EmailAddress, true
		}
	}
	return "", false
}

// DisplayName joins the non-empty first and last names, falling back to the
// username and then to "Anonymous".
func (p IdentityPayload) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, part := range []*string{p.FirstName, p.LastName} {
		if part != nil && *part != "" {
			parts = append(parts, *part)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return anonymousName
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
