package editionscontrols

import (
	"encoding/hex"
	"strconv"

	"github.com/rarible/eclipse-program-library/core/events"
	"github.com/rarible/eclipse-program-library/core/types"
	"github.com/rarible/eclipse-program-library/native/editions"
)

const (
	// EventTypeControlsInitialised is emitted when a controls record is
	// created alongside its deployment.
	EventTypeControlsInitialised = "editions.controls.initialised"
	// EventTypePhaseAdded is emitted when the creator appends a phase.
	EventTypePhaseAdded = "editions.controls.phase_added"
	// EventTypeMinted is emitted for every successful controlled mint.
	EventTypeMinted = "editions.controls.minted"
	// EventTypeRoyaltiesUpdated is emitted when the royalty config changes.
	EventTypeRoyaltiesUpdated = "editions.controls.royalties_updated"
	// EventTypePlatformFeeUpdated is emitted when the platform fee changes.
	EventTypePlatformFeeUpdated = "editions.controls.platform_fee_updated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// ControlsInitialisedEvent returns the structured payload announcing a new
// controls record.
func ControlsInitialisedEvent(controls *Controls) *types.Event {
	return &types.Event{
		Type: EventTypeControlsInitialised,
		Attributes: map[string]string{
			"symbol":   controls.Symbol,
			"creator":  hexAddr(controls.Creator),
			"treasury": hexAddr(controls.Treasury),
		},
	}
}

// PhaseAddedEvent returns the structured payload for a phase append.
func PhaseAddedEvent(symbol string, index uint32, phase Phase) *types.Event {
	gated := "false"
	if phase.Gated() {
		gated = "true"
	}
	return &types.Event{
		Type: EventTypePhaseAdded,
		Attributes: map[string]string{
			"symbol":     symbol,
			"phaseIndex": strconv.FormatUint(uint64(index), 10),
			"price":      strconv.FormatUint(phase.PriceAmount, 10),
			"startTime":  strconv.FormatUint(phase.StartTime, 10),
			"endTime":    strconv.FormatUint(phase.EndTime, 10),
			"gated":      gated,
		},
	}
}

// MintedEvent returns the structured payload for a successful mint.
func MintedEvent(symbol string, phaseIndex uint32, item *editions.Item, split *Split) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"symbol":      symbol,
			"phaseIndex":  strconv.FormatUint(uint64(phaseIndex), 10),
			"index":       strconv.FormatUint(item.Index, 10),
			"minter":      hexAddr(item.Minter),
			"pricePaid":   split.Debit.String(),
			"platformFee": split.PlatformFeeTotal.String(),
			"royalty":     split.RoyaltyTotal.String(),
			"treasury":    split.TreasuryAmount.String(),
		},
	}
}

// RoyaltiesUpdatedEvent captures a royalty configuration change.
func RoyaltiesUpdatedEvent(symbol string, royalty RoyaltyConfig) *types.Event {
	return &types.Event{
		Type: EventTypeRoyaltiesUpdated,
		Attributes: map[string]string{
			"symbol":      symbol,
			"basisPoints": strconv.FormatUint(uint64(royalty.BasisPoints), 10),
			"recipients":  strconv.Itoa(len(royalty.Recipients)),
		},
	}
}

// PlatformFeeUpdatedEvent captures a platform fee configuration change.
func PlatformFeeUpdatedEvent(symbol string, fee PlatformFeeConfig) *types.Event {
	flat := "false"
	if fee.IsFlat {
		flat = "true"
	}
	return &types.Event{
		Type: EventTypePlatformFeeUpdated,
		Attributes: map[string]string{
			"symbol":     symbol,
			"value":      strconv.FormatUint(fee.Value, 10),
			"isFlat":     flat,
			"recipients": strconv.Itoa(len(fee.Recipients)),
		},
	}
}
