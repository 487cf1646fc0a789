package model

import "fmt"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ValidRoles are the allowed message roles.
var ValidRoles = map[Role]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleSystem:    true,
	RoleTool:      true,
}

// ChatMessage is one entry of the conversation sent per request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// Validate checks the role against ValidRoles.
func (m ChatMessage) Validate() error {
	if !ValidRoles[m.Role] {
		return fmt.Errorf("invalid role %q (valid: user, assistant, system, tool)", m.Role)
	}
	return nil
}

// Slot keys written by the merge policy.
const (
	SlotLat              = "lat"
	SlotLng              = "lng"
	SlotCityFromDevice   = "city_from_device"
	SlotLocationAccuracy = "location_accuracy"
)

// SlotMap holds request-time parameters sent to the brain service.
type SlotMap map[string]any

// Clone returns a shallow copy. A nil map clones to an empty one.
func (s SlotMap) Clone() SlotMap {
	out := make(SlotMap, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether key is set to a non-nil value.
func (s SlotMap) Has(key string) bool {
	v, ok := s[key]
	return ok && v != nil
}
