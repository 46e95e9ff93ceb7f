package http

import (
	"encoding/json"
	"strings"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// ElementKey is the W3C web element identifier key.
const ElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Capability names, accepted with or without the vendor prefix.
const (
	capApp            = "app"
	capTopLevelWindow = "appTopLevelWindow"
	vendorPrefix      = "appium:"
)

// NewSessionRequest accepts both W3C and legacy capability payloads.
type NewSessionRequest struct {
	Capabilities struct {
		AlwaysMatch map[string]any   `json:"alwaysMatch"`
		FirstMatch  []map[string]any `json:"firstMatch"`
	} `json:"capabilities"`
	DesiredCapabilities map[string]any `json:"desiredCapabilities"`
}

// merged flattens the capability sources. alwaysMatch wins over the first
// firstMatch entry, which wins over desiredCapabilities.
func (r NewSessionRequest) merged() map[string]any {
	out := make(map[string]any)
	layers := []map[string]any{r.DesiredCapabilities}
	if len(r.Capabilities.FirstMatch) > 0 {
		layers = append(layers, r.Capabilities.FirstMatch[0])
	}
	layers = append(layers, r.Capabilities.AlwaysMatch)
	for _, layer := range layers {
		for k, v := range layer {
			out[strings.TrimPrefix(k, vendorPrefix)] = v
		}
	}
	return out
}

// AutomationCapabilities extracts the automation target.
func (r NewSessionRequest) AutomationCapabilities() automation.Capabilities {
	caps := r.merged()
	str := func(key string) string {
		s, _ := caps[key].(string)
		return s
	}
	return automation.Capabilities{
		App:            str(capApp),
		TopLevelWindow: str(capTopLevelWindow),
	}
}

// NewSessionResponse is the value of a created session.
type NewSessionResponse struct {
	SessionID    id.SessionID   `json:"sessionId"`
	Capabilities map[string]any `json:"capabilities"`
}

// LocatorRequest is a find element body.
type LocatorRequest struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

// ElementReference is a found element in W3C and legacy form.
type ElementReference map[string]id.ElementID

func elementRef(eid id.ElementID) ElementReference {
	return ElementReference{ElementKey: eid, "ELEMENT": eid}
}

// ExecuteRequest is an execute script body.
type ExecuteRequest struct {
	Script string            `json:"script"`
	Args   []json.RawMessage `json:"args"`
}

// KeysRequest is a send keys body. Value wins over Text.
type KeysRequest struct {
	Text  *string  `json:"text"`
	Value []string `json:"value"`
}

// Runes returns the key sequence.
func (r KeysRequest) Runes() []rune {
	if len(r.Value) > 0 {
		return []rune(strings.Join(r.Value, ""))
	}
	if r.Text != nil {
		return []rune(*r.Text)
	}
	return nil
}

// SwitchWindowRequest selects a window by handle. Name is the legacy field.
type SwitchWindowRequest struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

func (r SwitchWindowRequest) target() string {
	if r.Handle != "" {
		return r.Handle
	}
	return r.Name
}

// StatusResponse is the value of GET /status.
type StatusResponse struct {
	Ready    bool           `json:"ready"`
	Message  string         `json:"message"`
	Build    map[string]any `json:"build"`
	Sessions int            `json:"sessions"`
}
