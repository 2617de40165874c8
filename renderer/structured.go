package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/infrawatch/infrawatch/resources"
	"gopkg.in/yaml.v3"
)

// vmView is the serialized form of a VMRecord
type vmView struct {
	Name              string            `yaml:"name" json:"name"`
	ResourceGroup     string            `yaml:"resource_group" json:"resource_group"`
	Size              string            `yaml:"size" json:"size"`
	Location          string            `yaml:"location" json:"location"`
	OSType            string            `yaml:"os_type" json:"os_type"`
	PowerState        string            `yaml:"power_state" json:"power_state"`
	PublicIP          string            `yaml:"public_ip" json:"public_ip"`
	PrivateIP         string            `yaml:"private_ip" json:"private_ip"`
	Tags              map[string]string `yaml:"tags" json:"tags"`
	Tagged            bool              `yaml:"tagged" json:"tagged"`
	ProvisioningState string            `yaml:"provisioning_state" json:"provisioning_state"`
	FailedLookups     []string          `yaml:"failed_lookups,omitempty" json:"failed_lookups,omitempty"`
}

type reportView struct {
	SubscriptionID string   `yaml:"subscription_id" json:"subscription_id"`
	VMs            []vmView `yaml:"vms" json:"vms"`
	Summary        Summary  `yaml:"summary" json:"summary"`
}

func newReportView(inv resources.Inventory) reportView {
	vms := make([]vmView, 0, len(inv.Records))
	for _, r := range inv.Records {
		vms = append(vms, vmView{
			Name:              r.Name,
			ResourceGroup:     r.ResourceGroup,
			Size:              r.Size,
			Location:          r.Location,
			OSType:            r.OSType,
			PowerState:        r.PowerState,
			PublicIP:          r.PublicIP,
			PrivateIP:         r.PrivateIP,
			Tags:              r.Tags,
			Tagged:            r.Tagged(),
			ProvisioningState: r.ProvisioningState,
			FailedLookups:     failedLookups(r.Enrichment),
		})
	}
	return reportView{
		SubscriptionID: inv.SubscriptionID,
		VMs:            vms,
		Summary:        Summarize(inv.Records),
	}
}

func failedLookups(e resources.Enrichment) []string {
	var failed []string
	if e.PowerState.Outcome == resources.OutcomeFailed {
		failed = append(failed, "power_state")
	}
	if e.PrivateIP.Outcome == resources.OutcomeFailed {
		failed = append(failed, "private_ip")
	}
	if e.PublicIP.Outcome == resources.OutcomeFailed {
		failed = append(failed, "public_ip")
	}
	return failed
}

// RenderYAML writes the inventory and its summary as YAML
func (r *Renderer) RenderYAML(inv resources.Inventory) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(newReportView(inv)); err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}
	return enc.Close()
}

// RenderJSON writes the inventory and its summary as indented JSON
func (r *Renderer) RenderJSON(inv resources.Inventory) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newReportView(inv)); err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return nil
}
