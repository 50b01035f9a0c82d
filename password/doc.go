// Package password implements credential hashing, policy enforcement,
// strength scoring, and strong-password generation.
//
// # Design
//
// Hashing uses argon2id with a configurable work factor and encodes the
// result as a PHC string ($argon2id$v=19$m=..,t=..,p=..$salt$hash) so the
// parameters travel with the hash. Policy checks run before hashing and
// report every violated rule, not just the first. Strength scoring is a
// separate concern used for UI feedback and never gates storage.
//
// # What this package must NOT do
//
//   - Persist anything. Hashes are returned to the caller.
//   - Import credcore or any sibling package.
package password
