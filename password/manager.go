package password

// Manager combines policy enforcement and hashing: the storage path for
// credentials. Hash refuses any password that violates the policy;
// Verify and NeedsUpgrade delegate to the underlying hasher.
type Manager struct {
	policy Policy
	hasher *Hasher
}

// NewManager builds a Manager from a policy and argon2id parameters.
func NewManager(policy Policy, cfg HashConfig) (*Manager, error) {
	hasher, err := NewHasher(cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{policy: policy, hasher: hasher}, nil
}

// Policy returns the active policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// HashConfig returns the active argon2id parameters.
func (m *Manager) HashConfig() HashConfig {
	return m.hasher.config
}

// Hash enforces the policy and derives an argon2id PHC hash. A policy
// violation returns *PolicyError carrying every violated rule.
func (m *Manager) Hash(password string, userContext []string) (string, error) {
	if violations := m.policy.Check(password, userContext); len(violations) > 0 {
		return "", &PolicyError{Violations: violations}
	}
	return m.hasher.Hash(password)
}

// Verify reports whether password matches encodedHash. The comparison is
// constant-time with respect to the derived keys.
func (m *Manager) Verify(password, encodedHash string) (bool, error) {
	return m.hasher.Verify(password, encodedHash)
}

// NeedsUpgrade reports whether encodedHash uses weaker parameters than the
// active configuration.
func (m *Manager) NeedsUpgrade(encodedHash string) (bool, error) {
	return m.hasher.NeedsUpgrade(encodedHash)
}

// Strength scores a candidate for UI feedback. Independent of Hash.
func (m *Manager) Strength(password string, userContext []string) Strength {
	return Rate(password, userContext)
}

// Generate produces a policy-satisfying random password.
func (m *Manager) Generate(length int) (string, error) {
	return m.policy.Generate(length)
}
