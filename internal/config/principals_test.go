package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

func TestParsePrincipals(t *testing.T) {
	p, err := ParsePrincipals([]string{
		"user:restricteduser1@example.com",
		"group:vm_admin_access@example.com",
		"user:demouser1@example.com",
		"user:restricteduser1@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, model.Principals{
		Users:  []string{"restricteduser1@example.com", "demouser1@example.com"},
		Groups: []string{"vm_admin_access@example.com"},
	}, p)
}

func TestParsePrincipals_Empty(t *testing.T) {
	p, err := ParsePrincipals(nil)
	require.NoError(t, err)
	assert.Zero(t, p.Len())
}

func TestParsePrincipals_Rejects(t *testing.T) {
	for _, arg := range []string{"demouser1@example.com", "user:", "role:r@example.com"} {
		t.Run(arg, func(t *testing.T) {
			_, err := ParsePrincipals([]string{arg})
			assert.Error(t, err)
		})
	}
}
