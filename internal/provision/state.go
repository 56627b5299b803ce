package provision

// State is the in-memory record accumulated over one provisioning run. It is
// owned by the Runner for the duration of the run and discarded afterward;
// nothing here is persisted. Fields are only ever set, never cleared:
// the service account identifier is recorded once, granted roles grow
// monotonically, and the endpoint is recorded after deployment completes.
//
// State is not safe for concurrent use. A run is strictly sequential and two
// simultaneous runs against the same project would race on the cloud side
// regardless of what this struct does.
type State struct {
	serviceAccountID string
	grantedRoles     []string
	deployedEndpoint string
}

// NewState returns an empty state for a fresh run.
func NewState() *State {
	return &State{}
}

// RecordServiceAccount records the provisioned (or pre-existing) service
// account identifier. The first recorded value wins; later calls are ignored.
func (s *State) RecordServiceAccount(id string) {
	if s.serviceAccountID == "" {
		s.serviceAccountID = id
	}
}

// ServiceAccountID returns the recorded service account identifier, or empty
// if the account step has not completed.
func (s *State) ServiceAccountID() string {
	return s.serviceAccountID
}

// GrantRole records that roleID is bound to the service account. Recording
// the same role twice keeps a single entry.
func (s *State) GrantRole(roleID string) {
	if s.HasRole(roleID) {
		return
	}
	s.grantedRoles = append(s.grantedRoles, roleID)
}

// HasRole reports whether roleID has been recorded as granted.
func (s *State) HasRole(roleID string) bool {
	for _, granted := range s.grantedRoles {
		if granted == roleID {
			return true
		}
	}
	return false
}

// GrantedRoles returns a copy of the granted role identifiers in grant order.
func (s *State) GrantedRoles() []string {
	out := make([]string, len(s.grantedRoles))
	copy(out, s.grantedRoles)
	return out
}

// RecordEndpoint records the public URL of the deployed bridge service.
func (s *State) RecordEndpoint(url string) {
	if s.deployedEndpoint == "" {
		s.deployedEndpoint = url
	}
}

// Endpoint returns the discovered public URL, or empty if discovery has not
// completed.
func (s *State) Endpoint() string {
	return s.deployedEndpoint
}
