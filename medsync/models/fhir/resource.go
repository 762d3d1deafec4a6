package fhir

import "encoding/json"

// Resource is an open, resourceType-tagged record. Only the discriminator
// and id are modeled; every other field round-trips through Fields so the
// client never strips data it does not understand.
type Resource struct {
	ResourceType string
	ID           string
	Fields       map[string]interface{}
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["resourceType"] = r.ResourceType
	if r.ID != "" {
		out["id"] = r.ID
	}
	return json.Marshal(out)
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["resourceType"].(string); ok {
		r.ResourceType = v
	}
	if v, ok := raw["id"].(string); ok {
		r.ID = v
	}
	delete(raw, "resourceType")
	delete(raw, "id")
	r.Fields = raw
	return nil
}

// Clone returns a copy whose top-level Fields map may be added to without
// affecting the caller's value. Nested values are shared.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	dup := &Resource{ResourceType: r.ResourceType, ID: r.ID}
	if r.Fields != nil {
		dup.Fields = make(map[string]interface{}, len(r.Fields))
		for k, v := range r.Fields {
			dup.Fields[k] = v
		}
	}
	return dup
}

// Set assigns a top-level field, allocating Fields if needed.
func (r *Resource) Set(key string, value interface{}) {
	if r.Fields == nil {
		r.Fields = make(map[string]interface{})
	}
	r.Fields[key] = value
}

// Get reads a top-level field.
func (r *Resource) Get(key string) (interface{}, bool) {
	v, ok := r.Fields[key]
	return v, ok
}
