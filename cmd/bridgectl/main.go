// Package main implements the bridgectl CLI tool.
// It provisions the 1Password SCIM bridge for Google Workspace SSO.
package main

import "github.com/bridgectl/bridgectl/cmd/bridgectl/cmd"

func main() {
	cmd.Execute()
}
