package options

import (
	"fmt"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/spf13/cobra"
)

const layoutSchedule = "2006-01-02 15:04"

// CallOptions holds the editable call fields
type CallOptions struct {
	Name          string
	Phone         string
	Address       string
	Priority      string
	Status        string
	At            string
	Notes         string
	ClearSchedule bool
}

func AddCallArgs(cmd *cobra.Command, o *CallOptions) {
	cmd.Flags().StringVar(&o.Name, "name", "", "Customer name.")
	cmd.Flags().StringVar(&o.Phone, "phone", "", "Phone number.")
	cmd.Flags().StringVar(&o.Address, "address", "", "Service address.")
	cmd.Flags().StringVarP(&o.Priority, "priority", "p", "", "One of low, medium or high.")
	cmd.Flags().StringVar(&o.Status, "status", "", "One of new, scheduled, in_progress or done.")
	cmd.Flags().StringVar(&o.At, "at", "",
		`Schedule the visit in local time, example: --at="2024-03-14 09:00".`)
	cmd.Flags().StringVar(&o.Notes, "notes", "", "Free-form notes.")
}

func AddClearScheduleArg(cmd *cobra.Command, o *CallOptions) {
	cmd.Flags().BoolVar(&o.ClearSchedule, "clear-schedule", false, "Remove the scheduled time.")
}

func (o *CallOptions) scheduledAt(loc *time.Location) (*int64, error) {
	if o.At == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(layoutSchedule, o.At, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --at: %w", err)
	}
	ms := types.Millis(t)
	return &ms, nil
}

// Fields builds the input for a new call
func (o *CallOptions) Fields(loc *time.Location) (types.Fields, error) {
	f := types.Fields{Name: o.Name, Phone: o.Phone, Address: o.Address, Notes: o.Notes}
	if o.Priority != "" {
		p, err := types.ParsePriority(o.Priority)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	if o.Status != "" {
		s, err := types.ParseStatus(o.Status)
		if err != nil {
			return f, err
		}
		f.Status = s
	}
	at, err := o.scheduledAt(loc)
	if err != nil {
		return f, err
	}
	f.ScheduledAt = at
	return f, nil
}

// Patch builds an update from the flags the user actually set
func (o *CallOptions) Patch(cmd *cobra.Command, loc *time.Location) (types.Patch, error) {
	var p types.Patch
	changed := cmd.Flags().Changed

	if changed("name") {
		p.Name = &o.Name
	}
	if changed("phone") {
		p.Phone = &o.Phone
	}
	if changed("address") {
		p.Address = &o.Address
	}
	if changed("notes") {
		p.Notes = &o.Notes
	}
	if changed("priority") {
		pr, err := types.ParsePriority(o.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if changed("status") {
		st, err := types.ParseStatus(o.Status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if changed("at") {
		at, err := o.scheduledAt(loc)
		if err != nil {
			return p, err
		}
		p.ScheduledAt = at
	}
	p.ClearSchedule = o.ClearSchedule
	return p, p.Validate()
}
