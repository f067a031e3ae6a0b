package editions

import (
	"encoding/hex"
	"strconv"

	"github.com/rarible/eclipse-program-library/core/events"
	"github.com/rarible/eclipse-program-library/core/types"
)

const (
	// EventTypeDeploymentInitialised is emitted when a new collection
	// deployment is created.
	EventTypeDeploymentInitialised = "editions.deployment.initialised"
	// EventTypeItemIssued is emitted for every item minted against a
	// deployment.
	EventTypeItemIssued = "editions.item.issued"
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

// DeploymentInitialisedEvent returns the structured payload announcing a new
// deployment.
func DeploymentInitialisedEvent(deployment *Deployment) *types.Event {
	return &types.Event{
		Type: EventTypeDeploymentInitialised,
		Attributes: map[string]string{
			"symbol":    deployment.Symbol,
			"creator":   hexAddr(deployment.Creator),
			"maxTokens": strconv.FormatUint(deployment.MaxNumberOfTokens, 10),
			"name":      deployment.CollectionName,
			"uri":       deployment.CollectionURI,
		},
	}
}

// ItemIssuedEvent returns the structured payload for a freshly issued item.
func ItemIssuedEvent(item *Item) *types.Event {
	return &types.Event{
		Type: EventTypeItemIssued,
		Attributes: map[string]string{
			"symbol": item.Symbol,
			"index":  strconv.FormatUint(item.Index, 10),
			"name":   item.Name,
			"uri":    item.URI,
			"minter": hexAddr(item.Minter),
		},
	}
}
