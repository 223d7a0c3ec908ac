// Package password hashes and verifies account passwords with Argon2id.
//
// Credentials are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// Verification uses the parameters stored in the credential. [Argon2.NeedsUpgrade]
// reports credentials produced with weaker parameters so callers can re-hash after
// the next successful login.
//
// The package never stores or logs passwords.
package password
