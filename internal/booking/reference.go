package booking

// MinAuthoritativeReferenceLength is the length from which a reference is
// treated as authoritative and may no longer be replaced by channel data.
const MinAuthoritativeReferenceLength = 5

// IsAuthoritativeReference reports whether ref identifies a confirmed booking
func IsAuthoritativeReference(ref string) bool {
	return len(ref) >= MinAuthoritativeReferenceLength
}

// AdoptReference returns the reference a row should carry after seeing
// incoming. A non-empty incoming value replaces a current one that is empty
// or shorter, so an authoritative reference can be lengthened but never
// blanked or shortened.
func AdoptReference(current, incoming string) string {
	return adopt(current, incoming)
}

// AdoptDisplayName applies the reference rule to guest display names
func AdoptDisplayName(current, incoming string) string {
	return adopt(current, incoming)
}

func adopt(current, incoming string) string {
	if incoming != "" && len(current) < len(incoming) {
		return incoming
	}
	return current
}
