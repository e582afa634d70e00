package snsapi

import "regexp"

// DefaultSigningCertHostPattern matches the regional SNS endpoints that serve
// signing certificates, including the China partition.
const DefaultSigningCertHostPattern = `^sns\.[a-zA-Z0-9\-]{3,}\.amazonaws\.com(\.cn)?$`

var defaultSigningCertHost = regexp.MustCompile(DefaultSigningCertHostPattern)

// IsSigningCertHost reports whether host (without port) is an SNS endpoint.
func IsSigningCertHost(host string) bool {
	return defaultSigningCertHost.MatchString(host)
}
