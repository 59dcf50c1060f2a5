package config

// Redacted replaces secret values in printed output.
const Redacted = "[REDACTED]"

// Secret is a configuration value that must not leak into logs.
type Secret string

// UnmarshalText lets env parsing populate a Secret.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

// Reveal returns the raw value.
func (s Secret) Reveal() string { return string(s) }

// Empty reports whether no value was provided.
func (s Secret) Empty() bool { return s == "" }

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return Redacted
}

func (s Secret) GoString() string { return s.String() }

// MarshalText keeps secrets redacted in structured output.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
