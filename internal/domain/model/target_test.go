package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargets_InspectPrincipals(t *testing.T) {
	targets := Targets{
		Users:  []UserTarget{{Email: "u1@x.com"}, {Email: "u2@x.com"}},
		Groups: []GroupTarget{{Email: "g1@x.com"}},
	}

	got := targets.InspectPrincipals()
	assert.Equal(t, []string{"u1@x.com", "u2@x.com"}, got.Users)
	assert.Equal(t, []string{"g1@x.com"}, got.Groups)

	targets.Inspect = Principals{Users: []string{"restricted@x.com"}}
	got = targets.InspectPrincipals()
	assert.Equal(t, Principals{Users: []string{"restricted@x.com"}}, got)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, 3, targets.Len(), "inspect-only principals are not update targets")
}
