package flows

// Deps groups flow dependency sets. The root engine builds this once and delegates
// each request to the matching flow. U is the host user type.
type Deps[U any] struct {
	Verify VerifyDeps[U]
	Issue  IssueDeps
	Revoke RevokeDeps
	Login  LoginDeps[U]
}
