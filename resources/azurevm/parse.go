package azurevm

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
)

const powerStatePrefix = "PowerState/"

// ResourceGroupFromID returns the resource group segment of an ARM resource ID.
// "/subscriptions/{id}/resourceGroups/{rg}/..." yields "{rg}".
func ResourceGroupFromID(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) <= 4 {
		return ""
	}
	return parts[4]
}

// ParsePowerState returns the suffix of the first "PowerState/" status code
func ParsePowerState(codes []string) (string, bool) {
	for _, code := range codes {
		if state, ok := strings.CutPrefix(code, powerStatePrefix); ok {
			return state, true
		}
	}
	return "", false
}

// parseReference extracts the resource group and name a NIC or public IP reference points to
func parseReference(id string) (resourceGroup, name string, err error) {
	rid, err := arm.ParseResourceID(id)
	if err != nil {
		return "", "", err
	}
	return rid.ResourceGroupName, rid.Name, nil
}
