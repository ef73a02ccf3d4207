package futures

import (
	"encoding/hex"
	"math/big"
	"testing"

	"futurechain/core/events"
)

func TestCreatedEventCarriesTerms(t *testing.T) {
	f, err := SanitizeFuture(validFuture())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	evt := NewCreatedEvent(f)
	if evt.Type != EventTypeCreated {
		t.Fatalf("expected type %s, got %s", EventTypeCreated, evt.Type)
	}
	want := map[string]string{
		"futureId":            "1",
		"owner":               hex.EncodeToString(f.Owner[:]),
		"deliverable":         "WHT",
		"payToken":            "FUT",
		"deliverableQuantity": "10",
		"totalSupply":         "100",
		"price":               "5",
		"securityDeposit":     "100",
	}
	for key, value := range want {
		if got := evt.Attributes[key]; got != value {
			t.Fatalf("attribute %s = %q, want %q", key, got, value)
		}
	}
}

func TestDeliveryClaimedEventCarriesFee(t *testing.T) {
	f, _ := SanitizeFuture(validFuture())
	f.TotalClaimed = big.NewInt(45)
	evt := NewDeliveryClaimedEvent(f, big.NewInt(50), big.NewInt(5))
	if evt.Type != EventTypeDeliveryClaimed {
		t.Fatalf("expected type %s, got %s", EventTypeDeliveryClaimed, evt.Type)
	}
	if evt.Attributes["claimed"] != "50" || evt.Attributes["fee"] != "5" {
		t.Fatalf("unexpected attributes: %v", evt.Attributes)
	}
	if evt.Attributes["totalClaimed"] != "45" {
		t.Fatalf("expected totalClaimed 45, got %q", evt.Attributes["totalClaimed"])
	}
}

func TestClaimedEventCarriesSettlement(t *testing.T) {
	f, _ := SanitizeFuture(validFuture())
	holder := testAddr(0x02)
	result := &ClaimResult{
		ClaimCount:    big.NewInt(10),
		Deliverable:   big.NewInt(50),
		DepositRefund: big.NewInt(10),
		CostRefund:    big.NewInt(25),
	}
	evt := NewClaimedEvent(f, holder, result)
	if evt.Attributes["holder"] != hex.EncodeToString(holder[:]) {
		t.Fatalf("unexpected holder attribute %q", evt.Attributes["holder"])
	}
	if evt.Attributes["deliverableOut"] != "50" ||
		evt.Attributes["depositRefund"] != "10" ||
		evt.Attributes["costRefund"] != "25" {
		t.Fatalf("unexpected settlement attributes: %v", evt.Attributes)
	}
}

func TestEngineEmitsLifecycleEvents(t *testing.T) {
	h := newHarness(t)
	var seen []string
	h.engine.SetEmitter(emitterFunc(func(eventType string) {
		seen = append(seen, eventType)
	}))

	future := h.mustCreate(t)
	h.mustDeposit(t, future.ID)
	h.mustMint(t, future.ID, 10)
	h.mustDeliver(t, future.ID, 100)
	if _, err := h.engine.DeliverClaim(future.ID, testOwner); err != nil {
		t.Fatalf("deliver claim: %v", err)
	}
	h.now = testEndTime + 1
	if _, err := h.engine.Claim(future.ID, testBuyer, big.NewInt(10)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := h.engine.Refund(future.ID, testOwner); err != nil {
		t.Fatalf("refund: %v", err)
	}

	want := []string{
		EventTypeCreated,
		EventTypeDeposited,
		EventTypeMinted,
		EventTypeDelivered,
		EventTypeDeliveryClaimed,
		EventTypeClaimed,
		EventTypeRefunded,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(seen), seen)
	}
	for i, eventType := range want {
		if seen[i] != eventType {
			t.Fatalf("event %d = %s, want %s", i, seen[i], eventType)
		}
	}
}

type emitterFunc func(eventType string)

func (fn emitterFunc) Emit(evt events.Event) { fn(evt.EventType()) }
