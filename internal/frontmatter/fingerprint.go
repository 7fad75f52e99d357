package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint computes the content fingerprint of a document from its
// frontmatter and body. Fields are serialized as sorted LF YAML with the
// final newline trimmed, and any stored fingerprint field is excluded.
func Fingerprint(fm Frontmatter, body []byte) (string, error) {
	fields := fm.Fields()
	delete(fields, mdfp.FingerprintField)

	forHash := ""
	if len(fields) > 0 {
		serialized, err := SerializeYAML(fields, Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		forHash = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(forHash, string(body)), nil
}
