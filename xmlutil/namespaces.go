package xmlutil

import "encoding/xml"

const (
	// NSGML is the GML 2 and GML 3.1 namespace.
	NSGML = "http://www.opengis.net/gml"
	// NSGML32 is the GML 3.2 namespace.
	NSGML32 = "http://www.opengis.net/gml/3.2"
	NSXLink = "http://www.w3.org/1999/xlink"
	NSXSI   = "http://www.w3.org/2001/XMLSchema-instance"
	NSWFS   = "http://www.opengis.net/wfs"
	NSWFS20 = "http://www.opengis.net/wfs/2.0"
)

var (
	// XSINil is the xsi:nil attribute name.
	XSINil = xml.Name{Space: NSXSI, Local: "nil"}
	// XLinkHref is the xlink:href attribute name.
	XLinkHref = xml.Name{Space: NSXLink, Local: "href"}
)

// IsNamespaceDecl reports whether attr declares a namespace prefix
// (xmlns or xmlns:pfx) rather than carrying element data.
func IsNamespaceDecl(attr xml.Attr) bool {
	return attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns")
}
