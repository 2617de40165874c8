package renderer

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/infrawatch/infrawatch/resources"
	"github.com/olekukonko/tablewriter"
)

// NoVMsMessage is printed instead of a table when the inventory is empty
const NoVMsMessage = "No VMs found in subscription."

const (
	taggedMarker   = "✓"
	untaggedMarker = "✗"
)

var tableHeader = []string{
	"Name",
	"Resource Group",
	"Location",
	"Size",
	"OS",
	"Power State",
	"Private IP",
	"Public IP",
	"Tagged",
	"Provisioning",
}

// Renderer writes inventory reports to an output stream
type Renderer struct {
	out   io.Writer
	color bool
}

// Option configures a Renderer
type Option func(*Renderer)

// WithColor enables or disables ANSI colors in table output
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		r.color = enabled
	}
}

// NewRenderer creates a new Renderer writing to out. Colors are off unless enabled.
func NewRenderer(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the VM table followed by the summary
func (r *Renderer) Render(records []resources.VMRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.out, NoVMsMessage)
		return err
	}

	table := tablewriter.NewWriter(r.out)
	table.SetHeader(tableHeader)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, rec := range records {
		table.Append([]string{
			rec.Name,
			rec.ResourceGroup,
			rec.Location,
			rec.Size,
			rec.OSType,
			r.powerState(rec.PowerState),
			rec.PrivateIP,
			rec.PublicIP,
			r.tagMarker(rec.Tagged()),
			rec.ProvisioningState,
		})
	}
	table.Render()

	return r.renderSummary(Summarize(records))
}

func (r *Renderer) renderSummary(s Summary) error {
	lines := []string{
		"",
		r.paint(color.Bold, "Summary"),
		fmt.Sprintf("Total: %d", s.Total),
		fmt.Sprintf("Running: %d", s.Running),
		fmt.Sprintf("Untagged: %d", s.Untagged),
		fmt.Sprintf("Resource groups: %d", len(s.ByResourceGroup)),
	}
	for _, name := range s.GroupNames() {
		lines = append(lines, fmt.Sprintf("  %s: %d", name, s.ByResourceGroup[name]))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

func (r *Renderer) powerState(state string) string {
	switch ClassifyPowerState(state) {
	case StateHealthy:
		return r.paint(color.FgGreen, state)
	case StateAttention:
		return r.paint(color.FgRed, state)
	default:
		return r.paint(color.FgYellow, state)
	}
}

func (r *Renderer) tagMarker(tagged bool) string {
	if tagged {
		return r.paint(color.FgGreen, taggedMarker)
	}
	return r.paint(color.FgRed, untaggedMarker)
}

func (r *Renderer) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if r.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}
