package encoding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/sparqlsyntax/internal/algebra"
)

// DomainQuery separates query fingerprints from any other hash computed
// over canonical JSON. The version suffix allows the document layout to
// change without colliding with older fingerprints.
const DomainQuery = "sparqlsyntax/query/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryDocument describes q as a canonical document: its form, projected
// variables, S-expression algebra, and the base and dataset when present.
func QueryDocument(q *algebra.Query) Object {
	doc := Object{
		"form":      String(algebra.FormName(q.Form)),
		"variables": Strings(q.ProjectedVariables()),
		"algebra":   String(algebra.FormatQuery(q)),
	}
	if q.Base != "" {
		doc["base"] = String(q.Base)
	}
	if q.Dataset != nil {
		doc["dataset"] = Object{
			"default": Strings(q.Dataset.Default),
			"named":   Strings(q.Dataset.Named),
		}
	}
	return doc
}

// Fingerprint returns the content address of q.
func Fingerprint(q *algebra.Query) (string, error) {
	canonical, err := MarshalCanonical(QueryDocument(q))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}
