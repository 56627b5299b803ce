package provision

import (
	"github.com/bridgectl/bridgectl/internal/constants"
)

// ManualStep is a residual operator action that sits outside this tool's
// automation boundary. SAML application registration and directory-sync
// pairing have no usable admin APIs, so they are reported instead of
// performed.
type ManualStep struct {
	Title   string
	Details []string
}

// ManualSteps returns the operator actions remaining after a successful run,
// parameterized by the discovered endpoint and the organization context from
// the request. Pure formatting; no side effects.
func ManualSteps(state *State, req *Request) []ManualStep {
	endpoint := state.Endpoint()

	return []ManualStep{
		{
			Title: "Register the SAML application in the Google Workspace Admin console",
			Details: []string{
				"Open https://admin.google.com and go to Apps > Web and mobile apps",
				"Add app > Add custom SAML app",
				"ACS URL: " + endpoint + constants.ACSPath,
				"Entity ID: " + constants.SSOEntityID,
				"Start URL: " + constants.SSOStartURL,
				"Name ID: Basic Information > Primary email",
				"Attribute mappings: Primary email -> email, First name -> firstName, Last name -> lastName",
				"Turn the app ON for the users or organizational units that should sign in",
			},
		},
		{
			Title: "Pair directory sync in the 1Password Admin console",
			Details: []string{
				"Sign in at https://start.1password.com as " + req.AdminEmail,
				"Go to Settings > Provisioning > Directory Sync and choose Google Workspace",
				"SCIM bridge URL: " + endpoint,
				"Create a bearer token when prompted and store it with the " + req.Domain + " credentials",
			},
		},
	}
}
