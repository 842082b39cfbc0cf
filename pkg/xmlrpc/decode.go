package xmlrpc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// node is a minimal element tree; the wire format only needs names,
// element children and character data.
type node struct {
	name     string
	children []*node
	text     strings.Builder
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) textContent() string {
	if len(n.children) == 0 {
		return n.text.String()
	}
	var b strings.Builder
	b.WriteString(n.text.String())
	for _, c := range n.children {
		b.WriteString(c.textContent())
	}
	return b.String()
}

func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *node
	var stack []*node

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			} else {
				return nil, errors.New("multiple root elements")
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// DecodeResponse reads a methodResponse document.
//
// A fault response yields a nil Value and a *Fault. A response without
// parameters yields Nil{} and a nil error.
func DecodeResponse(data []byte) (Value, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if root.name != "methodResponse" {
		return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrMalformedResponse, root.name)
	}

	if fault := root.child("fault"); fault != nil {
		return nil, decodeFault(fault)
	}

	params := root.child("params")
	if params == nil {
		return Nil{}, nil
	}
	param := params.child("param")
	if param == nil {
		return Nil{}, nil
	}
	value := param.child("value")
	if value == nil {
		return Nil{}, nil
	}
	return decodeNode(value)
}

func decodeFault(fault *node) error {
	f := &Fault{Code: DefaultFaultCode, Message: DefaultFaultMessage}

	var v Value
	if payload := fault.child("value"); payload != nil {
		// A fault payload that cannot be read still reports as a fault.
		v, _ = decodeNode(payload)
	}
	s, ok := v.(*Struct)
	if !ok {
		return f
	}

	if code, ok := s.Get("faultCode"); ok {
		switch c := code.(type) {
		case Int:
			f.Code = int(c)
		case Double:
			f.Code = int(c)
		case String:
			if n, err := strconv.Atoi(strings.TrimSpace(string(c))); err == nil {
				f.Code = n
			}
		}
	}
	if msg, ok := s.Get("faultString"); ok {
		if str, ok := msg.(String); ok && str != "" {
			f.Message = string(str)
		}
	}
	return f
}

func decodeNode(n *node) (Value, error) {
	switch n.name {
	case "value":
		// Untyped values default to string; typed values nest exactly one element.
		if len(n.children) == 0 {
			return String(n.text.String()), nil
		}
		return decodeNode(n.children[0])
	case "nil":
		return Nil{}, nil
	case "boolean":
		return Bool(strings.TrimSpace(n.textContent()) == "1"), nil
	case "int", "i4":
		s := strings.TrimSpace(n.textContent())
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid <%s> %q", ErrMalformedResponse, n.name, s)
		}
		return Int(i), nil
	case "double":
		s := strings.TrimSpace(n.textContent())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid <double> %q", ErrMalformedResponse, s)
		}
		return Double(f), nil
	case "dateTime.iso8601":
		return DateTime{Raw: strings.TrimSpace(n.textContent())}, nil
	case "string":
		return String(n.textContent()), nil
	case "struct":
		return decodeStruct(n)
	case "array":
		return decodeArray(n)
	}
	return String(n.textContent()), nil
}

func decodeStruct(n *node) (Value, error) {
	s := NewStruct()
	for _, m := range n.children {
		if m.name != "member" {
			continue
		}
		var name string
		if nameNode := m.child("name"); nameNode != nil {
			name = nameNode.textContent()
		}
		var v Value = Nil{}
		if valueNode := m.child("value"); valueNode != nil {
			decoded, err := decodeNode(valueNode)
			if err != nil {
				return nil, err
			}
			v = decoded
		}
		s.Set(name, v)
	}
	return s, nil
}

func decodeArray(n *node) (Value, error) {
	data := n.child("data")
	if data == nil {
		return Array{}, nil
	}
	arr := make(Array, 0, len(data.children))
	for _, c := range data.children {
		if c.name != "value" {
			continue
		}
		v, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}
