package domain

const (
	CredentialsBackendFile    = "file"
	CredentialsBackendKeyring = "keyring"
	CredentialsBackendPass    = "pass"
)

// Settings is the effective CLI configuration after file and environment
// layering.
type Settings struct {
	ClientID              string
	APIBaseURL            string
	AuthorizeURL          string
	TokenURL              string
	CallbackPort          int
	CredentialsBackend    string
	BulkConcurrency       int
	BulkRequestsPerSecond float64
}
