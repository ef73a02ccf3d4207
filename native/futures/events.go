package futures

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"futurechain/core/types"
)

const (
	EventTypeCreated          = "futures.created"
	EventTypeDeposited        = "futures.deposited"
	EventTypeMinted           = "futures.minted"
	EventTypeDelivered        = "futures.delivered"
	EventTypeDeliveryClaimed  = "futures.delivery_claimed"
	EventTypeClaimed          = "futures.claimed"
	EventTypeRefunded         = "futures.refunded"
	EventTypeFeeRateUpdated   = "futures.fee_rate_updated"
	EventTypeCollectorUpdated = "futures.collector_updated"
)

func baseAttributes(f *Future) map[string]string {
	attrs := make(map[string]string)
	if f == nil {
		return attrs
	}
	attrs["futureId"] = strconv.FormatUint(f.ID, 10)
	attrs["owner"] = hex.EncodeToString(f.Owner[:])
	attrs["deliverable"] = f.Deliverable
	attrs["payToken"] = f.PayToken
	return attrs
}

// NewCreatedEvent carries the full immutable metadata of a new future.
func NewCreatedEvent(f *Future) *types.Event {
	attrs := baseAttributes(f)
	if f != nil {
		attrs["deliverableQuantity"] = f.DeliverableQuantity.String()
		attrs["totalSupply"] = f.TotalSupply.String()
		attrs["price"] = f.Price.String()
		attrs["securityDeposit"] = f.SecurityDeposit.String()
		attrs["feeRate"] = strconv.FormatUint(uint64(f.FeeRate), 10)
		attrs["startTime"] = strconv.FormatInt(f.StartTime, 10)
		attrs["startDeliveryTime"] = strconv.FormatInt(f.StartDeliveryTime, 10)
		attrs["endTime"] = strconv.FormatInt(f.EndTime, 10)
		attrs["createdAt"] = strconv.FormatInt(f.CreatedAt, 10)
	}
	return &types.Event{Type: EventTypeCreated, Attributes: attrs}
}

// NewDepositedEvent records the guarantor posting the security deposit.
func NewDepositedEvent(f *Future, from [20]byte) *types.Event {
	attrs := baseAttributes(f)
	attrs["from"] = hex.EncodeToString(from[:])
	if f != nil {
		attrs["securityDeposit"] = f.SecurityDeposit.String()
	}
	return &types.Event{Type: EventTypeDeposited, Attributes: attrs}
}

// NewMintedEvent records a buyer purchasing claim units.
func NewMintedEvent(f *Future, buyer [20]byte, quantity, cost *big.Int) *types.Event {
	attrs := baseAttributes(f)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["quantity"] = quantity.String()
	attrs["cost"] = cost.String()
	if f != nil {
		attrs["mintedCount"] = f.MintedCount.String()
	}
	return &types.Event{Type: EventTypeMinted, Attributes: attrs}
}

// NewDeliveredEvent records a delivery into vault custody.
func NewDeliveredEvent(f *Future, from [20]byte, quantity *big.Int) *types.Event {
	attrs := baseAttributes(f)
	attrs["from"] = hex.EncodeToString(from[:])
	attrs["quantity"] = quantity.String()
	if f != nil {
		attrs["totalDelivered"] = f.TotalDelivered.String()
	}
	return &types.Event{Type: EventTypeDelivered, Attributes: attrs}
}

// NewDeliveryClaimedEvent records the owner withdrawing delivery proceeds,
// with the gross amount and the platform fee deducted from it.
func NewDeliveryClaimedEvent(f *Future, claimed, fee *big.Int) *types.Event {
	attrs := baseAttributes(f)
	attrs["claimed"] = claimed.String()
	attrs["fee"] = fee.String()
	if f != nil {
		attrs["totalClaimed"] = f.TotalClaimed.String()
	}
	return &types.Event{Type: EventTypeDeliveryClaimed, Attributes: attrs}
}

// NewClaimedEvent records a holder redemption with every settled component.
func NewClaimedEvent(f *Future, holder [20]byte, result *ClaimResult) *types.Event {
	attrs := baseAttributes(f)
	attrs["holder"] = hex.EncodeToString(holder[:])
	if result != nil {
		attrs["claimCount"] = result.ClaimCount.String()
		attrs["deliverableOut"] = result.Deliverable.String()
		attrs["depositRefund"] = result.DepositRefund.String()
		attrs["costRefund"] = result.CostRefund.String()
	}
	return &types.Event{Type: EventTypeClaimed, Attributes: attrs}
}

// NewRefundedEvent records the owner reclaiming the unused deposit and any
// deliverable surplus.
func NewRefundedEvent(f *Future, result *RefundResult) *types.Event {
	attrs := baseAttributes(f)
	if result != nil {
		attrs["depositReturned"] = result.DepositReturned.String()
		attrs["deliverableSurplus"] = result.DeliverableSurplus.String()
	}
	return &types.Event{Type: EventTypeRefunded, Attributes: attrs}
}

// NewFeeRateUpdatedEvent records an operator changing the global fee rate.
func NewFeeRateUpdatedEvent(operator [20]byte, rate uint32) *types.Event {
	return &types.Event{Type: EventTypeFeeRateUpdated, Attributes: map[string]string{
		"operator": hex.EncodeToString(operator[:]),
		"feeRate":  strconv.FormatUint(uint64(rate), 10),
	}}
}

// NewCollectorUpdatedEvent records an operator changing the fee collector.
func NewCollectorUpdatedEvent(operator [20]byte, collector [20]byte) *types.Event {
	return &types.Event{Type: EventTypeCollectorUpdated, Attributes: map[string]string{
		"operator":  hex.EncodeToString(operator[:]),
		"collector": hex.EncodeToString(collector[:]),
	}}
}
