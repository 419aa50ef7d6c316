package api

// Authenticator is implemented by types able to extract a subject from an
// Authorization header.
type Authenticator interface {
	SubjectFromAuthHeader(string) (string, error)
}
