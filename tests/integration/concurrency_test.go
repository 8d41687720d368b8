package integration

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"subpay/config"
	httpHandler "subpay/internal/adapter/http/handler"
	"subpay/internal/adapter/http/middleware"
	"subpay/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chargeStack runs only the payment service, with webhooks swallowed by a
// stub receiver. Used for hammering the charge endpoint.
type chargeStack struct {
	url      string
	idem     *idempotencyStore
	payments *paymentStore
	client   *http.Client
}

func newChargeStack(t *testing.T) *chargeStack {
	t.Helper()
	log := zerolog.Nop()

	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(receiver.Close)

	st := &chargeStack{
		idem:     newIdempotencyStore(),
		payments: newPaymentStore(),
		client:   &http.Client{Timeout: 5 * time.Second},
	}

	sigSvc := service.NewHMACSignatureService(testWebhookSecret)
	sender := service.NewWebhookSender(config.WebhookConfig{
		Endpoint:    receiver.URL,
		Secret:      testWebhookSecret,
		MaxAttempts: 1,
		RetryDelay:  time.Millisecond,
		Timeout:     time.Second,
	}, sigSvc, nil, nil, log)

	paymentSvc := service.NewPaymentService(st.payments, fakeTransactor{}, sender, config.BillingConfig{
		APIKey:             testAPIKey,
		SuccessRate:        1.0,
		MinProcessingDelay: time.Millisecond,
		MaxProcessingDelay: 2 * time.Millisecond,
	}, log)

	srv := httptest.NewServer(httpHandler.SetupPaymentRouter(httpHandler.PaymentRouterDeps{
		PaymentSvc:       paymentSvc,
		APIKey:           testAPIKey,
		IdempotencyStore: st.idem,
		IdempotencyTTL:   24 * time.Hour,
		Logger:           log,
	}))
	t.Cleanup(srv.Close)
	st.url = srv.URL

	return st
}

func (st *chargeStack) charge(t *testing.T, idemKey, externalRef string) (*http.Response, []byte) {
	t.Helper()
	body := []byte(`{"external_reference":"` + externalRef + `","amount_cents":1999,"currency":"USD"}`)
	req, err := http.NewRequest(http.MethodPost, st.url+"/api/v1/charges", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set(middleware.HeaderIdempotencyKey, idemKey)

	resp, err := st.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// Concurrent submissions with the same key must leave exactly one stored
// record and exactly one accepted charge, with the key's uniqueness
// constraint as the only arbiter.
func TestCharge_ConcurrentSameKey(t *testing.T) {
	st := newChargeStack(t)

	const workers = 8
	key := "concurrent-key-" + uuid.NewString()
	ref := "sub_" + uuid.NewString()

	var wg sync.WaitGroup
	statuses := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, _ := st.charge(t, key, ref)
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, code := range statuses {
		if code == http.StatusAccepted {
			accepted++
		}
	}
	require.GreaterOrEqual(t, accepted, 1)

	assert.Equal(t, 1, st.idem.count())
	assert.Equal(t, 1, st.payments.count())
}

// A retry after the first response is stored must replay it byte for byte.
func TestCharge_SequentialReplayIsByteIdentical(t *testing.T) {
	st := newChargeStack(t)

	key := "replay-key-" + uuid.NewString()
	ref := "sub_" + uuid.NewString()

	first, firstBody := st.charge(t, key, ref)
	require.Equal(t, http.StatusAccepted, first.StatusCode)
	require.Empty(t, first.Header.Get(middleware.HeaderIdempotencyReplayed))

	second, secondBody := st.charge(t, key, ref)
	require.Equal(t, http.StatusAccepted, second.StatusCode)
	require.Equal(t, "true", second.Header.Get(middleware.HeaderIdempotencyReplayed))
	require.Equal(t, firstBody, secondBody)
	require.Equal(t, first.Header.Get("Content-Type"), second.Header.Get("Content-Type"))

	require.Equal(t, 1, st.payments.count())
}

// A fresh key with an already-used reference is a real conflict, and that
// conflict response is itself cached for replay.
func TestCharge_NewKeyDuplicateReferenceConflicts(t *testing.T) {
	st := newChargeStack(t)

	ref := "sub_" + uuid.NewString()

	first, _ := st.charge(t, "key-one-"+uuid.NewString(), ref)
	require.Equal(t, http.StatusAccepted, first.StatusCode)

	conflictKey := "key-two-" + uuid.NewString()
	second, secondBody := st.charge(t, conflictKey, ref)
	require.Equal(t, http.StatusConflict, second.StatusCode)
	assert.Contains(t, string(secondBody), "PAY_002")

	third, thirdBody := st.charge(t, conflictKey, ref)
	require.Equal(t, http.StatusConflict, third.StatusCode)
	require.Equal(t, "true", third.Header.Get(middleware.HeaderIdempotencyReplayed))
	require.Equal(t, secondBody, thirdBody)

	require.Equal(t, 1, st.payments.count())
	require.Equal(t, 2, st.idem.count())
}
