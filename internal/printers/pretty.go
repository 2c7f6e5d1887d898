package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/alerts"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

// ShortIDLen is how many trailing id characters are shown without --show-id.
// UUIDv7 ids share their leading timestamp bits, so the tail is the part
// that tells calls apart.
const ShortIDLen = 8

const timeLayout = "Mon Jan 2 15:04"

type PrettyPrint struct {
	ShowID bool
	Out    io.Writer
}

func New(showID bool) *PrettyPrint {
	return &PrettyPrint{ShowID: showID, Out: color.Output}
}

func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[len(id)-ShortIDLen:]
}

func (pp *PrettyPrint) id(id string) string {
	if pp.ShowID {
		return id
	}
	return ShortID(id)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.Out, title)
	switch count {
	case 1:
		_, _ = c.Fprintf(pp.Out, " - %d call\n", count)
	default:
		_, _ = c.Fprintf(pp.Out, " - %d calls\n", count)
	}
}

func priority(p types.Priority) string {
	switch p {
	case types.PriorityHigh:
		return color.New(color.FgHiRed, color.Bold).Sprint(p.Label())
	case types.PriorityLow:
		return color.New(color.Faint).Sprint(p.Label())
	default:
		return color.New(color.FgYellow).Sprint(p.Label())
	}
}

func status(s types.Status) string {
	switch s {
	case types.StatusDone:
		return color.New(color.FgGreen).Sprint(s.Label())
	case types.StatusInProgress:
		return color.New(color.FgCyan).Sprint(s.Label())
	default:
		return s.Label()
	}
}

func scheduled(c types.Call) string {
	at, ok := c.Scheduled()
	if !ok {
		return "-"
	}
	return at.Local().Format(timeLayout)
}

func flagMarker(as []alerts.Alert) string {
	if len(as) == 0 {
		return ""
	}
	msgs := make([]string, len(as))
	sev := alerts.SeverityInfo
	for i, a := range as {
		msgs[i] = a.Message
		if a.Severity == alerts.SeverityCritical || (a.Severity == alerts.SeverityWarning && sev == alerts.SeverityInfo) {
			sev = a.Severity
		}
	}
	c := color.New(color.Faint)
	switch sev {
	case alerts.SeverityCritical:
		c = color.New(color.FgHiRed)
	case alerts.SeverityWarning:
		c = color.New(color.FgYellow)
	}
	return c.Sprint("! " + strings.Join(msgs, "; "))
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.Out, " none\n\n")
}

// List prints calls as a table. empty reports the whole collection being
// empty, which reads differently from a filter that matched nothing.
func (pp *PrettyPrint) List(calls []types.Call, empty bool) {
	pp.TitleWithCount("Service calls", len(calls))
	if len(calls) == 0 {
		if empty {
			_, _ = color.New(color.Faint, color.Italic).Fprint(pp.Out, " no service calls yet, add one with `workforce add`\n\n")
			return
		}
		pp.none()
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow("ID", "PRIORITY", "STATUS", "NAME", "PHONE", "SCHEDULED")
	for _, c := range calls {
		tbl.AddRow(pp.id(c.ID), priority(c.Priority), status(c.Status), c.DisplayName(), c.Phone, scheduled(c))
	}
	_, _ = fmt.Fprintln(pp.Out, tbl)
	_, _ = fmt.Fprintln(pp.Out)
}

// Board prints every column in board order with its flagged calls
func (pp *PrettyPrint) Board(columns []query.Column, flags map[string][]alerts.Alert) {
	for _, col := range columns {
		pp.TitleWithCount(col.Label, len(col.Calls))
		if len(col.Calls) == 0 {
			pp.none()
			continue
		}

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 40
		for _, c := range col.Calls {
			tbl.AddRow(pp.id(c.ID), priority(c.Priority), c.DisplayName(), scheduled(c), flagMarker(flags[c.ID]))
		}
		_, _ = fmt.Fprintln(pp.Out, tbl)
		_, _ = fmt.Fprintln(pp.Out)
	}
}

// Call prints one call in detail
func (pp *PrettyPrint) Call(c types.Call) {
	_, _ = color.New(color.Bold, color.Underline).Fprintln(pp.Out, c.DisplayName())

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 60
	tbl.AddRow("ID", c.ID)
	tbl.AddRow("Priority", priority(c.Priority))
	tbl.AddRow("Status", status(c.Status))
	tbl.AddRow("Phone", c.Phone)
	tbl.AddRow("Address", c.Address)
	tbl.AddRow("Scheduled", scheduled(c))
	tbl.AddRow("Notes", c.Notes)
	tbl.AddRow("Created", types.FromMillis(c.CreatedAt).Local().Format(time.RFC822))
	if c.UpdatedAt != nil {
		tbl.AddRow("Updated", types.FromMillis(*c.UpdatedAt).Local().Format(time.RFC822))
	}
	_, _ = fmt.Fprintln(pp.Out, tbl)
}

// JSON writes v indented
func (pp *PrettyPrint) JSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(pp.Out, string(b))
	return err
}
