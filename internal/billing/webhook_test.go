package billing

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/dropDatabas3/promptcast/internal/store"
	memstore "github.com/dropDatabas3/promptcast/internal/store/memory"
)

const testWebhookSecret = "whsec_test_0123456789"

func signedHeader(t *testing.T, payload []byte) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func subscriptionPayload(eventType, userID, priceID, status string) string {
	return fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": "2020-08-27",
		"type": %q,
		"data": {
			"object": {
				"id": "sub_test_1",
				"object": "subscription",
				"status": %q,
				"metadata": {"user_id": %q},
				"items": {
					"object": "list",
					"data": [{
						"id": "si_test_1",
						"object": "subscription_item",
						"price": {"id": %q, "object": "price"}
					}]
				}
			}
		}
	}`, eventType, status, userID, priceID)
}

func newHandler() (*WebhookHandler, *memstore.Store) {
	st := memstore.New()
	return &WebhookHandler{
		Store:  st,
		Secret: testWebhookSecret,
		PriceTiers: map[string]string{
			"price_grow":  "grow",
			"price_scale": "scale",
		},
	}, st
}

func post(t *testing.T, h *WebhookHandler, payload, sigHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/billing/webhook", strings.NewReader(payload))
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_SubscriptionCreatedSetsTier(t *testing.T) {
	h, st := newHandler()

	payload := subscriptionPayload("customer.subscription.created", "u1", "price_grow", "active")
	rec := post(t, h, payload, signedHeader(t, []byte(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	p, err := st.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "grow", p.Tier)
}

func TestWebhook_SubscriptionDeletedDowngrades(t *testing.T) {
	h, st := newHandler()
	st.Seed("u1", store.Profile{Tier: "scale"})

	payload := subscriptionPayload("customer.subscription.deleted", "u1", "price_scale", "canceled")
	rec := post(t, h, payload, signedHeader(t, []byte(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	p, err := st.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "free", p.Tier)
}

func TestWebhook_InactiveStatusDowngrades(t *testing.T) {
	h, st := newHandler()
	st.Seed("u1", store.Profile{Tier: "grow"})

	payload := subscriptionPayload("customer.subscription.updated", "u1", "price_grow", "past_due")
	rec := post(t, h, payload, signedHeader(t, []byte(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	p, _ := st.GetProfile(context.Background(), "u1")
	require.Equal(t, "free", p.Tier)
}

func TestWebhook_UnknownPriceFallsToFree(t *testing.T) {
	h, st := newHandler()

	payload := subscriptionPayload("customer.subscription.created", "u1", "price_misterioso", "active")
	rec := post(t, h, payload, signedHeader(t, []byte(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	p, _ := st.GetProfile(context.Background(), "u1")
	require.Equal(t, "free", p.Tier)
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	h, st := newHandler()

	payload := subscriptionPayload("customer.subscription.created", "u1", "price_grow", "active")
	rec := post(t, h, payload, "t=123,v1=deadbeef")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	p, _ := st.GetProfile(context.Background(), "u1")
	require.Nil(t, p)
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	h, _ := newHandler()

	payload := subscriptionPayload("customer.subscription.created", "u1", "price_grow", "active")
	rec := post(t, h, payload, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_IrrelevantEventAcked(t *testing.T) {
	h, _ := newHandler()

	payload := `{"id":"evt_2","object":"event","api_version":"2020-08-27","type":"invoice.paid","data":{"object":{}}}`
	rec := post(t, h, payload, signedHeader(t, []byte(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "received")
}

func TestWebhook_MissingUserMetadataAcked(t *testing.T) {
	h, _ := newHandler()

	// sin user_id no hay nada que aplicar, pero se ACKea para frenar retries
	payload := subscriptionPayload("customer.subscription.created", "", "price_grow", "active")
	rec := post(t, h, payload, signedHeader(t, []byte(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
}
