package glyph

// Namespace separates emote names from badge names. The same name may be
// bound in both namespaces to different codepoints.
type Namespace uint8

const (
	// NamespaceEmote holds inline chat emotes, keyed by emote name.
	NamespaceEmote Namespace = iota

	// NamespaceBadge holds user badges, keyed by "set/version".
	NamespaceBadge

	namespaceCount
)

var namespaceNames = [...]string{
	NamespaceEmote: "emote",
	NamespaceBadge: "badge",
}

// String returns the lower-case namespace name.
func (n Namespace) String() string {
	if int(n) < len(namespaceNames) {
		return namespaceNames[n]
	}
	return "unknown"
}

// Valid reports whether n is a known namespace.
func (n Namespace) Valid() bool {
	return n < namespaceCount
}
