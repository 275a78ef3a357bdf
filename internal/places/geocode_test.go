package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressComponentsMergeKeepsExisting(t *testing.T) {
	client := AddressComponents{Municipality: "Las Piñas", Barangay: "Talon Uno"}
	server := AddressComponents{
		Municipality: "Las Pinas City",
		Barangay:     "Talon 1",
		Province:     "Metro Manila",
		Region:       "NCR",
	}

	merged := client.Merge(server)

	assert.Equal(t, "Las Piñas", merged.Municipality)
	assert.Equal(t, "Talon Uno", merged.Barangay)
	assert.Equal(t, "Metro Manila", merged.Province)
	assert.Equal(t, "NCR", merged.Region)
}

func TestAddressComponentsIsZero(t *testing.T) {
	assert.True(t, AddressComponents{}.IsZero())
	assert.False(t, AddressComponents{Region: "NCR"}.IsZero())
}
