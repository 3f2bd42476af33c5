package service

import (
	"net/http"
	"testing"

	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_abc"
	payload := []byte(`{"id":"evt_1"}`)

	headers := http.Header{}
	headers.Set("Stripe-Signature", SignPayload(secret, "1700000000", payload))
	if err := VerifySignature(secret, payload, headers); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	// Extra stale v1 entries are tolerated as long as one matches.
	signed := SignPayload(secret, "1700000000", payload)
	headers.Set("Stripe-Signature", "t=1700000000,v1=deadbeef,"+signed[len("t=1700000000,"):])
	if err := VerifySignature(secret, payload, headers); err != nil {
		t.Fatalf("multi-entry header rejected: %v", err)
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	secret := "whsec_abc"
	payload := []byte(`{"id":"evt_1"}`)

	cases := map[string]string{
		"missing header": "",
		"no v1 entry":    "t=1700000000",
		"no timestamp":   "v1=deadbeef",
		"wrong secret":   SignPayload("whsec_other", "1700000000", payload),
		"tampered time":  "t=1700000000," + SignPayload(secret, "1700000001", payload)[13:],
	}
	for name, value := range cases {
		headers := http.Header{}
		if value != "" {
			headers.Set("Stripe-Signature", value)
		}
		if err := VerifySignature(secret, payload, headers); err != domain.ErrInvalidSignature {
			t.Fatalf("%s: expected invalid signature, got %v", name, err)
		}
	}
}
