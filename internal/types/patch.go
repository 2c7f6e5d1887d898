package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Patch is a partial update. Nil fields are left untouched.
// ClearSchedule removes ScheduledAt and travels as "scheduledAt": null on the wire.
type Patch struct {
	Name          *string
	Phone         *string
	Address       *string
	Priority      *Priority
	Status        *Status
	ScheduledAt   *int64
	ClearSchedule bool
	Notes         *string
	UpdatedAt     *int64
}

type patchJSON struct {
	Name        *string         `json:"name,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Address     *string         `json:"address,omitempty"`
	Priority    *Priority       `json:"priority,omitempty"`
	Status      *Status         `json:"status,omitempty"`
	ScheduledAt json.RawMessage `json:"scheduledAt,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	UpdatedAt   *int64          `json:"updatedAt,omitempty"`
}

var jsonNull = []byte("null")

func (p Patch) MarshalJSON() ([]byte, error) {
	out := patchJSON{
		Name:      p.Name,
		Phone:     p.Phone,
		Address:   p.Address,
		Priority:  p.Priority,
		Status:    p.Status,
		Notes:     p.Notes,
		UpdatedAt: p.UpdatedAt,
	}
	switch {
	case p.ClearSchedule:
		out.ScheduledAt = jsonNull
	case p.ScheduledAt != nil:
		raw, err := json.Marshal(*p.ScheduledAt)
		if err != nil {
			return nil, err
		}
		out.ScheduledAt = raw
	}
	return json.Marshal(out)
}

func (p *Patch) UnmarshalJSON(data []byte) error {
	var in patchJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Patch{
		Name:      in.Name,
		Phone:     in.Phone,
		Address:   in.Address,
		Priority:  in.Priority,
		Status:    in.Status,
		Notes:     in.Notes,
		UpdatedAt: in.UpdatedAt,
	}
	raw := bytes.TrimSpace(in.ScheduledAt)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, jsonNull):
		p.ClearSchedule = true
	default:
		var ms int64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return fmt.Errorf("scheduledAt: %w", err)
		}
		p.ScheduledAt = &ms
	}
	return nil
}

func (p Patch) Validate() error {
	if p.Priority != nil {
		if _, err := ParsePriority(string(*p.Priority)); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if _, err := ParseStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	if p.ClearSchedule && p.ScheduledAt != nil {
		return fmt.Errorf("scheduledAt cannot be both set and cleared")
	}
	return nil
}

// IsEmpty reports whether applying p would change nothing but UpdatedAt
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Address == nil && p.Priority == nil &&
		p.Status == nil && p.ScheduledAt == nil && !p.ClearSchedule && p.Notes == nil
}

// ApplyTo shallow-merges p over c. ID and CreatedAt are never changed.
func (p Patch) ApplyTo(c Call) Call {
	c = c.Clone()
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.ClearSchedule {
		c.ScheduledAt = nil
	} else if p.ScheduledAt != nil {
		v := *p.ScheduledAt
		c.ScheduledAt = &v
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.UpdatedAt != nil {
		v := *p.UpdatedAt
		c.UpdatedAt = &v
	}
	return c
}

// WithStatus is shorthand for a status-only patch
func WithStatus(s Status) Patch {
	return Patch{Status: &s}
}
