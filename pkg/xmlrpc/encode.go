package xmlrpc

import (
	"strconv"
	"strings"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces the five reserved XML characters with entity references.
func Escape(s string) string {
	return escaper.Replace(s)
}

// EncodeCall renders a complete methodCall request document.
func EncodeCall(method string, params ...Value) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><methodCall><methodName>`)
	b.WriteString(Escape(method))
	b.WriteString("</methodName><params>")
	for _, p := range params {
		b.WriteString("<param><value>")
		writeValue(&b, p)
		b.WriteString("</value></param>")
	}
	b.WriteString("</params></methodCall>")
	return b.String()
}

// EncodeValue renders the typed element for v, without the enclosing <value>.
func EncodeValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil, Nil:
		b.WriteString("<nil/>")
	case Bool:
		if x {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
	case Int:
		b.WriteString("<int>")
		b.WriteString(strconv.FormatInt(int64(x), 10))
		b.WriteString("</int>")
	case Double:
		b.WriteString("<double>")
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 64))
		b.WriteString("</double>")
	case DateTime:
		b.WriteString("<dateTime.iso8601>")
		b.WriteString(Escape(x.Raw))
		b.WriteString("</dateTime.iso8601>")
	case String:
		b.WriteString("<string>")
		b.WriteString(Escape(string(x)))
		b.WriteString("</string>")
	case Array:
		b.WriteString("<array><data>")
		for _, item := range x {
			b.WriteString("<value>")
			writeValue(b, item)
			b.WriteString("</value>")
		}
		b.WriteString("</data></array>")
	case *Struct:
		if x == nil {
			b.WriteString("<nil/>")
			return
		}
		b.WriteString("<struct>")
		for _, m := range x.Members {
			b.WriteString("<member><name>")
			b.WriteString(Escape(m.Name))
			b.WriteString("</name><value>")
			writeValue(b, m.Value)
			b.WriteString("</value></member>")
		}
		b.WriteString("</struct>")
	}
}
