package rdf

// Namespace IRIs.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
)

// RDF vocabulary IRIs used by the parser.
const (
	// RDFType is the predicate abbreviated by the `a` keyword.
	RDFType = RDFNamespace + "type"

	// RDFFirst, RDFRest and RDFNil encode collections as linked lists.
	RDFFirst = RDFNamespace + "first"
	RDFRest  = RDFNamespace + "rest"
	RDFNil   = RDFNamespace + "nil"

	// RDFLangString is the datatype of language-tagged literals.
	RDFLangString = RDFNamespace + "langString"
)

// XML Schema datatype IRIs.
const (
	XSDString   = XSDNamespace + "string"
	XSDBoolean  = XSDNamespace + "boolean"
	XSDInteger  = XSDNamespace + "integer"
	XSDDecimal  = XSDNamespace + "decimal"
	XSDDouble   = XSDNamespace + "double"
	XSDFloat    = XSDNamespace + "float"
	XSDDateTime = XSDNamespace + "dateTime"
	XSDDate     = XSDNamespace + "date"

	XSDNonPositiveInteger = XSDNamespace + "nonPositiveInteger"
	XSDNegativeInteger    = XSDNamespace + "negativeInteger"
	XSDLong               = XSDNamespace + "long"
	XSDInt                = XSDNamespace + "int"
	XSDShort              = XSDNamespace + "short"
	XSDByte               = XSDNamespace + "byte"
	XSDNonNegativeInteger = XSDNamespace + "nonNegativeInteger"
	XSDUnsignedLong       = XSDNamespace + "unsignedLong"
	XSDUnsignedInt        = XSDNamespace + "unsignedInt"
	XSDUnsignedShort      = XSDNamespace + "unsignedShort"
	XSDUnsignedByte       = XSDNamespace + "unsignedByte"
	XSDPositiveInteger    = XSDNamespace + "positiveInteger"
)

// StandardPrefixes returns the prefix table most queries expect to be
// predeclared. The returned map is a fresh copy.
func StandardPrefixes() map[string]string {
	return map[string]string{
		"rdf":  RDFNamespace,
		"rdfs": RDFSNamespace,
		"xsd":  XSDNamespace,
		"owl":  OWLNamespace,
	}
}

// integerDatatypes lists xsd:integer and every datatype derived from it.
var integerDatatypes = map[string]bool{
	XSDInteger:            true,
	XSDNonPositiveInteger: true,
	XSDNegativeInteger:    true,
	XSDLong:               true,
	XSDInt:                true,
	XSDShort:              true,
	XSDByte:               true,
	XSDNonNegativeInteger: true,
	XSDUnsignedLong:       true,
	XSDUnsignedInt:        true,
	XSDUnsignedShort:      true,
	XSDUnsignedByte:       true,
	XSDPositiveInteger:    true,
}
