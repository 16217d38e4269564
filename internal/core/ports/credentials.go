package ports

// CredentialJar is the single accessor for a role's credential. Nothing else
// in the gateway reads or writes credential cookies directly.
type CredentialJar interface {
	Token() string
	Store(token string)
	Clear()
}
