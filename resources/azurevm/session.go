package azurevm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
)

const managementScope = "https://management.azure.com/.default"

// ErrAuthentication is returned when no credential could obtain a management token
var ErrAuthentication = errors.New("azure authentication failed")

// AuthHint is printed alongside ErrAuthentication
const AuthHint = `Make sure you have:
  - Azure CLI installed and logged in: az login
  - Or AZURE_CLIENT_ID / AZURE_TENANT_ID / AZURE_CLIENT_SECRET set in the environment`

// VirtualMachinesAPI defines the compute API used by the collector
type VirtualMachinesAPI interface {
	NewListAllPager(options *armcompute.VirtualMachinesClientListAllOptions) *runtime.Pager[armcompute.VirtualMachinesClientListAllResponse]
	InstanceView(ctx context.Context, resourceGroupName string, vmName string, options *armcompute.VirtualMachinesClientInstanceViewOptions) (armcompute.VirtualMachinesClientInstanceViewResponse, error)
}

// InterfacesAPI defines the network interface API used by the collector
type InterfacesAPI interface {
	Get(ctx context.Context, resourceGroupName string, networkInterfaceName string, options *armnetwork.InterfacesClientGetOptions) (armnetwork.InterfacesClientGetResponse, error)
}

// PublicIPAddressesAPI defines the public IP API used by the collector
type PublicIPAddressesAPI interface {
	Get(ctx context.Context, resourceGroupName string, publicIPAddressName string, options *armnetwork.PublicIPAddressesClientGetOptions) (armnetwork.PublicIPAddressesClientGetResponse, error)
}

// Session holds the authenticated handles bound to one subscription.
// It is immutable once created.
type Session struct {
	subscriptionID    string
	virtualMachines   VirtualMachinesAPI
	interfaces        InterfacesAPI
	publicIPAddresses PublicIPAddressesAPI
}

// NewSessionWithClients creates a Session from already constructed clients
func NewSessionWithClients(subscriptionID string, vms VirtualMachinesAPI, nics InterfacesAPI, pips PublicIPAddressesAPI) *Session {
	return &Session{
		subscriptionID:    subscriptionID,
		virtualMachines:   vms,
		interfaces:        nics,
		publicIPAddresses: pips,
	}
}

// SubscriptionID returns the subscription the session is bound to
func (s *Session) SubscriptionID() string {
	return s.subscriptionID
}

// NewSession authenticates and builds the compute and network clients
func NewSession(ctx context.Context, subscriptionID string) (*Session, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}

	cred, err := authenticate(ctx, defaultCredentialSources())
	if err != nil {
		return nil, err
	}

	vmClient, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual machines client: %w", err)
	}
	nicClient, err := armnetwork.NewInterfacesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create network interfaces client: %w", err)
	}
	pipClient, err := armnetwork.NewPublicIPAddressesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create public IP addresses client: %w", err)
	}

	slog.Debug("Azure clients initialized", "subscription_id", subscriptionID)
	return NewSessionWithClients(subscriptionID, vmClient, nicClient, pipClient), nil
}

type credentialSource struct {
	name string
	new  func() (azcore.TokenCredential, error)
}

// Azure CLI login first, then the default chain (environment, managed identity, ...)
func defaultCredentialSources() []credentialSource {
	return []credentialSource{
		{
			name: "azure_cli",
			new: func() (azcore.TokenCredential, error) {
				return azidentity.NewAzureCLICredential(nil)
			},
		},
		{
			name: "default",
			new: func() (azcore.TokenCredential, error) {
				return azidentity.NewDefaultAzureCredential(nil)
			},
		},
	}
}

// authenticate returns the first credential able to get a management token
func authenticate(ctx context.Context, sources []credentialSource) (azcore.TokenCredential, error) {
	var errs []error
	for _, src := range sources {
		cred, err := src.new()
		if err != nil {
			slog.Debug("Credential unavailable", "source", src.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}

		_, err = cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{managementScope}})
		if err != nil {
			slog.Debug("Credential could not get a token", "source", src.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}

		slog.Debug("Authenticated", "source", src.name)
		return cred, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrAuthentication, errors.Join(errs...))
}
