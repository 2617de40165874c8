package renderer

import (
	"sort"

	"github.com/infrawatch/infrawatch/resources"
)

// Summary holds aggregates computed from a record list
type Summary struct {
	Total           int            `yaml:"total" json:"total"`
	Running         int            `yaml:"running" json:"running"`
	Untagged        int            `yaml:"untagged" json:"untagged"`
	ByResourceGroup map[string]int `yaml:"resource_groups" json:"resource_groups"`
}

// Summarize computes a fresh Summary from records
func Summarize(records []resources.VMRecord) Summary {
	s := Summary{
		Total:           len(records),
		ByResourceGroup: make(map[string]int),
	}
	for _, r := range records {
		if r.PowerState == resources.PowerStateRunning {
			s.Running++
		}
		if !r.Tagged() {
			s.Untagged++
		}
		s.ByResourceGroup[r.ResourceGroup]++
	}
	return s
}

// GroupNames returns the resource group names in ascending order
func (s Summary) GroupNames() []string {
	names := make([]string, 0, len(s.ByResourceGroup))
	for name := range s.ByResourceGroup {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StateClass is the display emphasis of a power state
type StateClass int

const (
	StateUnknown StateClass = iota
	StateHealthy
	StateAttention
)

// ClassifyPowerState maps a power state to its display emphasis
func ClassifyPowerState(state string) StateClass {
	switch state {
	case resources.PowerStateRunning:
		return StateHealthy
	case resources.PowerStateStopped, resources.PowerStateDeallocated:
		return StateAttention
	default:
		return StateUnknown
	}
}
