package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_RecordServiceAccount_SetOnce(t *testing.T) {
	state := NewState()
	assert.Empty(t, state.ServiceAccountID())

	state.RecordServiceAccount("sa@project.iam.gserviceaccount.com")
	assert.Equal(t, "sa@project.iam.gserviceaccount.com", state.ServiceAccountID())

	// A later record never overwrites the identity the run started with.
	state.RecordServiceAccount("other@project.iam.gserviceaccount.com")
	assert.Equal(t, "sa@project.iam.gserviceaccount.com", state.ServiceAccountID())
}

func TestState_GrantRole_Monotonic(t *testing.T) {
	state := NewState()
	assert.Empty(t, state.GrantedRoles())
	assert.False(t, state.HasRole("roles/storage.admin"))

	state.GrantRole("roles/iam.serviceAccountUser")
	state.GrantRole("roles/storage.admin")
	state.GrantRole("roles/iam.serviceAccountUser")

	assert.Equal(t, []string{"roles/iam.serviceAccountUser", "roles/storage.admin"}, state.GrantedRoles())
	assert.True(t, state.HasRole("roles/storage.admin"))
	assert.True(t, state.HasRole("roles/iam.serviceAccountUser"))
	assert.False(t, state.HasRole("roles/run.invoker"))
}

func TestState_GrantedRoles_ReturnsCopy(t *testing.T) {
	state := NewState()
	state.GrantRole("roles/storage.admin")

	roles := state.GrantedRoles()
	roles[0] = "roles/owner"

	assert.Equal(t, []string{"roles/storage.admin"}, state.GrantedRoles())
}

func TestState_RecordEndpoint_SetOnce(t *testing.T) {
	state := NewState()
	assert.Empty(t, state.Endpoint())

	state.RecordEndpoint("https://bridge.example.run.app")
	assert.Equal(t, "https://bridge.example.run.app", state.Endpoint())

	state.RecordEndpoint("https://other.example.run.app")
	assert.Equal(t, "https://bridge.example.run.app", state.Endpoint())
}
