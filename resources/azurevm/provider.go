package azurevm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/infrawatch/infrawatch/resources"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// ErrListVirtualMachines is returned when the subscription-wide VM listing fails
var ErrListVirtualMachines = errors.New("failed to list virtual machines")

// Collector implements resources.Collector for Azure virtual machines
type Collector struct {
	session     *Session
	concurrency int
}

var _ resources.Collector = (*Collector)(nil)

// Option configures a Collector
type Option func(*Collector)

// WithConcurrency sets how many VMs are enriched at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n >= 1 {
			c.concurrency = n
		}
	}
}

// NewCollector creates a collector bound to session
func NewCollector(session *Session, opts ...Option) *Collector {
	c := &Collector{
		session:     session,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect lists every VM in the subscription and enriches it with power state and IPs.
// Records keep the provider's listing order.
func (c *Collector) Collect(ctx context.Context) (resources.Inventory, error) {
	slog.Debug("Starting Azure VM discovery",
		"subscription_id", c.session.subscriptionID,
		"concurrency", c.concurrency)

	vms, err := c.listVirtualMachines(ctx)
	if err != nil {
		return resources.Inventory{}, err
	}

	slog.Info("Found virtual machines", "count", len(vms))

	records := make([]resources.VMRecord, len(vms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, vm := range vms {
		i, vm := i, vm
		g.Go(func() error {
			records[i] = c.buildRecord(gctx, vm)
			return nil
		})
	}
	// Enrichment failures are isolated per VM, so Wait only returns after all goroutines finish
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return resources.Inventory{}, fmt.Errorf("VM enrichment interrupted: %w", err)
	}

	inv := resources.Inventory{
		SubscriptionID: c.session.subscriptionID,
		Records:        records,
	}
	slog.Info("Azure VM discovery completed",
		"total_vms", len(records),
		"degraded_vms", len(inv.Degraded()))
	return inv, nil
}

// listVirtualMachines walks every page of the subscription-wide listing
func (c *Collector) listVirtualMachines(ctx context.Context) ([]*armcompute.VirtualMachine, error) {
	var vms []*armcompute.VirtualMachine

	pager := c.session.virtualMachines.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			slog.Error("ListAll API call failed", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrListVirtualMachines, err)
		}
		for _, vm := range page.Value {
			if vm == nil {
				continue
			}
			vms = append(vms, vm)
		}
		slog.Debug("Fetched VM page", "page_size", len(page.Value), "total", len(vms))
	}

	return vms, nil
}

// buildRecord assembles one VMRecord. It never fails; lookups degrade to sentinels.
func (c *Collector) buildRecord(ctx context.Context, vm *armcompute.VirtualMachine) resources.VMRecord {
	name := deref(vm.Name)
	resourceGroup := ResourceGroupFromID(deref(vm.ID))

	record := resources.VMRecord{
		Name:          name,
		ResourceGroup: resourceGroup,
		Location:      deref(vm.Location),
		OSType:        resources.OSTypeUnknown,
		Tags:          normalizeTags(vm.Tags),
	}

	var nicRefs []*armcompute.NetworkInterfaceReference
	if props := vm.Properties; props != nil {
		record.ProvisioningState = deref(props.ProvisioningState)
		if props.HardwareProfile != nil && props.HardwareProfile.VMSize != nil {
			record.Size = string(*props.HardwareProfile.VMSize)
		}
		if sp := props.StorageProfile; sp != nil && sp.OSDisk != nil && sp.OSDisk.OSType != nil {
			record.OSType = string(*sp.OSDisk.OSType)
		}
		if props.NetworkProfile != nil {
			nicRefs = props.NetworkProfile.NetworkInterfaces
		}
	}

	nics := newNICFetcher(c.session.interfaces)
	record.Enrichment = resources.Enrichment{
		PowerState: c.lookupPowerState(ctx, resourceGroup, name),
		PrivateIP:  lookupPrivateIP(ctx, nics, nicRefs),
		PublicIP:   c.lookupPublicIP(ctx, nics, nicRefs),
	}
	record.PowerState = record.Enrichment.PowerState.Or(resources.PowerStateUnknown)
	record.PrivateIP = record.Enrichment.PrivateIP.Or(resources.NotAvailable)
	record.PublicIP = record.Enrichment.PublicIP.Or(resources.NotAvailable)

	logLookupFailures(record)
	return record
}

func (c *Collector) lookupPowerState(ctx context.Context, resourceGroup, vmName string) resources.Lookup {
	slog.Debug("Fetching instance view", "resource_group", resourceGroup, "vm", vmName)

	resp, err := c.session.virtualMachines.InstanceView(ctx, resourceGroup, vmName, nil)
	if err != nil {
		return resources.Failed(fmt.Errorf("instance view: %w", err))
	}

	codes := make([]string, 0, len(resp.Statuses))
	for _, status := range resp.Statuses {
		if status != nil && status.Code != nil {
			codes = append(codes, *status.Code)
		}
	}

	state, ok := ParsePowerState(codes)
	if !ok {
		return resources.Absent()
	}
	return resources.Found(state)
}

// lookupPrivateIP only looks at the first IP configuration of the first NIC
func lookupPrivateIP(ctx context.Context, nics *nicFetcher, refs []*armcompute.NetworkInterfaceReference) resources.Lookup {
	if len(refs) == 0 || refs[0] == nil || refs[0].ID == nil {
		return resources.Absent()
	}

	nic, err := nics.get(ctx, *refs[0].ID)
	if err != nil {
		return resources.Failed(err)
	}

	configs := ipConfigurations(nic)
	if len(configs) == 0 || configs[0] == nil || configs[0].Properties == nil {
		return resources.Absent()
	}

	addr := deref(configs[0].Properties.PrivateIPAddress)
	if addr == "" {
		return resources.Absent()
	}
	return resources.Found(addr)
}

// lookupPublicIP scans every IP configuration of every NIC and resolves the
// first public IP reference it finds. Any failed call ends the scan.
func (c *Collector) lookupPublicIP(ctx context.Context, nics *nicFetcher, refs []*armcompute.NetworkInterfaceReference) resources.Lookup {
	for _, ref := range refs {
		if ref == nil || ref.ID == nil {
			continue
		}

		nic, err := nics.get(ctx, *ref.ID)
		if err != nil {
			return resources.Failed(err)
		}

		for _, cfg := range ipConfigurations(nic) {
			if cfg == nil || cfg.Properties == nil || cfg.Properties.PublicIPAddress == nil || cfg.Properties.PublicIPAddress.ID == nil {
				continue
			}
			return c.fetchPublicIP(ctx, *cfg.Properties.PublicIPAddress.ID)
		}
	}

	return resources.Absent()
}

func (c *Collector) fetchPublicIP(ctx context.Context, id string) resources.Lookup {
	resourceGroup, name, err := parseReference(id)
	if err != nil {
		return resources.Failed(fmt.Errorf("public IP reference %q: %w", id, err))
	}

	slog.Debug("Fetching public IP address", "resource_group", resourceGroup, "name", name)
	resp, err := c.session.publicIPAddresses.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return resources.Failed(fmt.Errorf("public IP %s: %w", name, err))
	}

	if resp.Properties == nil || resp.Properties.IPAddress == nil || *resp.Properties.IPAddress == "" {
		return resources.Absent()
	}
	return resources.Found(*resp.Properties.IPAddress)
}

// nicFetcher memoizes NIC lookups for the duration of one VM's enrichment
type nicFetcher struct {
	client InterfacesAPI
	seen   map[string]nicResult
}

type nicResult struct {
	nic armnetwork.Interface
	err error
}

func newNICFetcher(client InterfacesAPI) *nicFetcher {
	return &nicFetcher{client: client, seen: make(map[string]nicResult)}
}

func (f *nicFetcher) get(ctx context.Context, id string) (armnetwork.Interface, error) {
	if r, ok := f.seen[id]; ok {
		return r.nic, r.err
	}

	var r nicResult
	resourceGroup, name, err := parseReference(id)
	if err != nil {
		r.err = fmt.Errorf("network interface reference %q: %w", id, err)
	} else {
		slog.Debug("Fetching network interface", "resource_group", resourceGroup, "name", name)
		resp, err := f.client.Get(ctx, resourceGroup, name, nil)
		if err != nil {
			r.err = fmt.Errorf("network interface %s: %w", name, err)
		} else {
			r.nic = resp.Interface
		}
	}

	f.seen[id] = r
	return r.nic, r.err
}

func ipConfigurations(nic armnetwork.Interface) []*armnetwork.InterfaceIPConfiguration {
	if nic.Properties == nil {
		return nil
	}
	return nic.Properties.IPConfigurations
}

// normalizeTags converts provider tags to a non-nil map
func normalizeTags(tags map[string]*string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func logLookupFailures(r resources.VMRecord) {
	lookups := []struct {
		name   string
		lookup resources.Lookup
	}{
		{"power_state", r.Enrichment.PowerState},
		{"private_ip", r.Enrichment.PrivateIP},
		{"public_ip", r.Enrichment.PublicIP},
	}
	for _, l := range lookups {
		if l.lookup.Outcome == resources.OutcomeFailed {
			slog.Warn("VM lookup failed, using fallback value",
				"vm", r.Name,
				"resource_group", r.ResourceGroup,
				"lookup", l.name,
				"error", l.lookup.Err)
		}
	}
}
