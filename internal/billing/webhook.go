// Package billing procesa webhooks de Stripe y los proyecta sobre el
// tier de suscripción del usuario. Es el ÚNICO camino de escritura del
// perfil: el resto del servicio solo lee.
package billing

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/dropDatabas3/promptcast/internal/entitlement"
	httperrors "github.com/dropDatabas3/promptcast/internal/http/errors"
	"github.com/dropDatabas3/promptcast/internal/observability/logger"
	"github.com/dropDatabas3/promptcast/internal/store"
)

// Stripe recomienda acotar el payload para evitar bodies maliciosos.
const maxBodyBytes = int64(65536)

// metadataUserID es la key de metadata que el checkout escribe en la
// suscripción para atar el customer de Stripe a nuestro user_id.
const metadataUserID = "user_id"

// WebhookHandler verifica la firma del webhook y aplica los cambios de
// suscripción al store de perfiles.
type WebhookHandler struct {
	Store store.ProfileStore
	// Secret es el signing secret del endpoint (whsec_...).
	Secret string
	// PriceTiers mapea price ID de Stripe → tier interno.
	PriceTiers map[string]string
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromWithFields(ctx, logger.Component("billing"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		// Firma inválida: puede ser un replay o un tercero. Nunca procesar.
		log.Warn("webhook signature verification failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("firma de webhook inválida"))
		return
	}

	log = log.With(logger.String("event_type", string(event.Type)), logger.String("event_id", event.ID))

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		err = h.applySubscription(r, event, false)
	case "customer.subscription.deleted":
		err = h.applySubscription(r, event, true)
	default:
		// Eventos que no nos interesan se ACKean igual: Stripe reintenta
		// todo lo que no sea 2xx y no queremos la cola llena de retries.
		log.Debug("event type ignored")
	}

	if err != nil {
		log.Error("webhook processing failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))
}

func (h *WebhookHandler) applySubscription(r *http.Request, event stripe.Event, deleted bool) error {
	ctx := r.Context()
	log := logger.FromWithFields(ctx, logger.Component("billing"))

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	userID := sub.Metadata[metadataUserID]
	if userID == "" {
		// Suscripción sin metadata nuestra: creada fuera del checkout.
		// Se loguea y se ACKea; no hay perfil al que aplicarla.
		log.Warn("subscription without user_id metadata, skipping",
			logger.String("subscription_id", sub.ID),
		)
		return nil
	}

	tier := h.resolveTier(&sub, deleted)
	if err := h.Store.SetTier(ctx, userID, string(tier)); err != nil {
		return err
	}

	log.Info("subscription tier applied",
		logger.UserID(userID),
		logger.Tier(string(tier)),
		logger.String("subscription_id", sub.ID),
	)
	return nil
}

// resolveTier decide el tier resultante del evento. Cancelaciones y
// suscripciones fuera de estado activo degradan a free; el resto se
// resuelve por el price ID del primer item.
func (h *WebhookHandler) resolveTier(sub *stripe.Subscription, deleted bool) entitlement.Tier {
	if deleted {
		return entitlement.TierFree
	}
	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
	default:
		return entitlement.TierFree
	}
	if sub.Items == nil {
		return entitlement.TierFree
	}
	for _, item := range sub.Items.Data {
		if item.Price == nil {
			continue
		}
		if name, ok := h.PriceTiers[item.Price.ID]; ok {
			return entitlement.NormalizeTier(name)
		}
	}
	return entitlement.TierFree
}
