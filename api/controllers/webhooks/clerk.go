package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-gateway/api/responses"
	clerkwebhook "github.com/angelmondragon/storefront-gateway/internal/webhooks/clerk"
	pkgerrors "github.com/angelmondragon/storefront-gateway/pkg/errors"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
	svix "github.com/svix/svix-webhooks/go"
)

const (
	headerSvixID        = "svix-id"
	headerSvixTimestamp = "svix-timestamp"
	headerSvixSignature = "svix-signature"

	maxWebhookBodyBytes = 1 << 20
)

const (
	outcomeProcessed        = "processed"
	outcomeMissingHeaders   = "missing_headers"
	outcomeInvalidSignature = "invalid_signature"
	outcomeInvalidPayload   = "invalid_payload"
	outcomeConflict         = "conflict"
	outcomeError            = "error"
)

type ClerkWebhookService interface {
	HandleEvent(ctx context.Context, event clerkwebhook.Event) error
}

// SignatureVerifier checks a delivery body against its svix headers.
type SignatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type webhookObserver interface {
	Observe(eventType, outcome string, elapsed time.Duration)
}

// NewSignatureVerifier builds a svix verifier for the shared signing secret.
func NewSignatureVerifier(secret string) (SignatureVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("webhook signing secret is required")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return wh, nil
}

// ClerkWebhook handles signed identity provider events.
func ClerkWebhook(svc ClerkWebhookService, verifier SignatureVerifier, observer webhookObserver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		started := time.Now()

		eventType := ""
		observe := func(outcome string) {
			if observer != nil {
				observer.Observe(eventType, outcome, time.Since(started))
			}
		}

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier unavailable"))
			return
		}

		svixID := r.Header.Get(headerSvixID)
		if svixID == "" || r.Header.Get(headerSvixTimestamp) == "" || r.Header.Get(headerSvixSignature) == "" {
			observe(outcomeMissingHeaders)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no signature headers"))
			return
		}
		if logg != nil {
			ctx = logg.WithEventID(ctx, svixID)
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			observe(outcomeInvalidPayload)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if err := verifier.Verify(payload, r.Header); err != nil {
			observe(outcomeInvalidSignature)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignatureInvalid, err, "verify signature"))
			return
		}

		event, err := clerkwebhook.ParseEvent(payload)
		if err != nil {
			observe(outcomeInvalidPayload)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eventType = event.Type

		if logg != nil {
			ctx = logg.WithField(ctx, "event_type", event.Type)
			logg.Info(ctx, "webhook received")
			logg.Debug(logg.WithField(ctx, "body", string(payload)), "webhook payload")
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			observe(outcomeFor(err))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		observe(outcomeProcessed)
		responses.WriteSuccess(w, map[string]string{"message": "success"})
	}
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		return outcomeConflict
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return outcomeInvalidPayload
	default:
		return outcomeError
	}
}
