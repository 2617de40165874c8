package resources

// Sentinel values used when enrichment data is unavailable
const (
	NotAvailable      = "N/A"
	PowerStateUnknown = "unknown"
	OSTypeUnknown     = "Unknown"
)

// Well-known power states reported by the instance view
const (
	PowerStateRunning     = "running"
	PowerStateStopped     = "stopped"
	PowerStateDeallocated = "deallocated"
)

// Outcome describes how a single enrichment lookup ended
type Outcome int

const (
	// OutcomeFound means the lookup returned a value
	OutcomeFound Outcome = iota
	// OutcomeAbsent means the lookup succeeded but nothing was there
	OutcomeAbsent
	// OutcomeFailed means an API call failed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeAbsent:
		return "absent"
	case OutcomeFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Lookup is the result of one enrichment step
type Lookup struct {
	Value   string
	Outcome Outcome
	Err     error
}

// Found returns a successful lookup
func Found(value string) Lookup {
	return Lookup{Value: value, Outcome: OutcomeFound}
}

// Absent returns a lookup for data that does not exist
func Absent() Lookup {
	return Lookup{Outcome: OutcomeAbsent}
}

// Failed returns a lookup whose API call failed
func Failed(err error) Lookup {
	return Lookup{Outcome: OutcomeFailed, Err: err}
}

// Or returns the looked-up value, or sentinel when nothing was found
func (l Lookup) Or(sentinel string) string {
	if l.Outcome == OutcomeFound {
		return l.Value
	}
	return sentinel
}

// Enrichment keeps the raw lookup results behind the display values of a VMRecord
type Enrichment struct {
	PowerState Lookup
	PrivateIP  Lookup
	PublicIP   Lookup
}

// VMRecord represents one discovered virtual machine
type VMRecord struct {
	Name              string            // Unique within a resource group only
	ResourceGroup     string            // 5th segment of the resource ID
	Size              string            // VM size, e.g. Standard_B2s
	Location          string            // Azure region
	OSType            string            // Linux, Windows or Unknown
	PowerState        string            // running, stopped, deallocated, ... or unknown
	PublicIP          string            // IP literal or N/A
	PrivateIP         string            // IP literal or N/A
	Tags              map[string]string // Never nil
	ProvisioningState string            // Passed through from the provider

	Enrichment Enrichment
}

// Tagged reports whether the VM carries at least one tag
func (r VMRecord) Tagged() bool {
	return len(r.Tags) > 0
}

// Inventory is the ordered result of one collection pass
type Inventory struct {
	SubscriptionID string
	Records        []VMRecord
}

// Degraded returns the records for which at least one lookup failed
func (inv Inventory) Degraded() []VMRecord {
	var out []VMRecord
	for _, r := range inv.Records {
		e := r.Enrichment
		if e.PowerState.Outcome == OutcomeFailed || e.PrivateIP.Outcome == OutcomeFailed || e.PublicIP.Outcome == OutcomeFailed {
			out = append(out, r)
		}
	}
	return out
}
