package engine

import "github.com/google/uuid"

// Well-known payload keys. Events may carry any number of extra keys; these
// are the ones the engine itself reads.
const (
	PayloadKeyEmail  = "email"
	PayloadKeyPhone  = "phone"
	PayloadKeyName   = "name"
	PayloadKeyUserID = "userId"
)

// EventPayload is the flat attribute map carried by a business event. Values
// are pointers so callers can distinguish "absent" from "empty"; nil values
// are stripped before the payload is used for rendering or persisted.
type EventPayload map[string]*string

// Get returns the value for key when it is present and non-nil.
func (p EventPayload) Get(key string) (string, bool) {
	value, ok := p[key]
	if !ok || value == nil {
		return "", false
	}
	return *value, true
}

// Email returns the contact email, or "" when the event carries none.
func (p EventPayload) Email() string {
	value, _ := p.Get(PayloadKeyEmail)
	return value
}

// Phone returns the contact phone, or "" when the event carries none.
func (p EventPayload) Phone() string {
	value, _ := p.Get(PayloadKeyPhone)
	return value
}

// Name returns the contact display name, or "" when the event carries none.
func (p EventPayload) Name() string {
	value, _ := p.Get(PayloadKeyName)
	return value
}

// UserID parses the payload's userId key as a UUID when present.
func (p EventPayload) UserID() *uuid.UUID {
	raw, ok := p.Get(PayloadKeyUserID)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// Variables returns the defined payload entries as a plain string map, the
// shape expected by the template renderer and the enrollment metadata column.
func (p EventPayload) Variables() map[string]string {
	vars := make(map[string]string, len(p))
	for key, value := range p {
		if value == nil {
			continue
		}
		vars[key] = *value
	}
	return vars
}
