package resources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVMRecord_Tagged(t *testing.T) {
	testCases := []struct {
		name     string
		tags     map[string]string
		expected bool
	}{
		{name: "nil tags", tags: nil, expected: false},
		{name: "empty tags", tags: map[string]string{}, expected: false},
		{name: "one tag", tags: map[string]string{"env": "prod"}, expected: true},
		{name: "empty value still counts", tags: map[string]string{"owner": ""}, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := VMRecord{Tags: tc.tags}
			assert.Equal(t, tc.expected, r.Tagged())
			assert.Equal(t, len(r.Tags) > 0, r.Tagged())
		})
	}
}

func TestLookup_Or(t *testing.T) {
	assert.Equal(t, "10.0.0.4", Found("10.0.0.4").Or(NotAvailable))
	assert.Equal(t, NotAvailable, Absent().Or(NotAvailable))
	assert.Equal(t, PowerStateUnknown, Failed(errors.New("boom")).Or(PowerStateUnknown))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "found", OutcomeFound.String())
	assert.Equal(t, "absent", OutcomeAbsent.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "invalid", Outcome(42).String())
}

func TestInventory_Degraded(t *testing.T) {
	inv := Inventory{
		Records: []VMRecord{
			{Name: "ok", Enrichment: Enrichment{PowerState: Found("running"), PrivateIP: Absent(), PublicIP: Absent()}},
			{Name: "nic-failed", Enrichment: Enrichment{PowerState: Found("running"), PrivateIP: Failed(errors.New("403")), PublicIP: Absent()}},
		},
	}

	degraded := inv.Degraded()
	assert.Len(t, degraded, 1)
	assert.Equal(t, "nic-failed", degraded[0].Name)
}
