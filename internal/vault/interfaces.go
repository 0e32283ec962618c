package vault

//go:generate mockgen -source=interfaces.go -destination=../mock/password_hasher_mock.go -package=mock

// PasswordHasher is the pluggable slow password-hash collaborator used for
// PIN storage. Verify must compare in constant time so a mismatch reveals
// nothing about how close the guess was.
//
// Hashing is intentionally slow (tunable work factor); callers on a
// latency-sensitive path should invoke it off that path.
type PasswordHasher interface {
	// Hash derives a storable digest from the secret.
	Hash(secret string) (string, error)

	// Verify reports whether secret matches the digest, in constant time.
	Verify(secret, digest string) bool
}
