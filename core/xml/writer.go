package xml

import (
	"bufio"
	"io"
)

// Attr is a single attribute written by Writer.
type Attr struct {
	Name  string
	Value string
}

// A is shorthand for an Attr literal.
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// Writer emits indented XML one element per line. The first error from the
// underlying writer is kept and returned by Flush; later calls are no-ops.
type Writer struct {
	w      *bufio.Writer
	indent string
	stack  []string
	err    error
}

// NewWriter returns a Writer indenting nested elements by two spaces.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), indent: "  "}
}

// Header writes the XML declaration.
func (x *Writer) Header() {
	x.write(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
}

// StartTag opens an element; it must be matched by EndTag.
func (x *Writer) StartTag(name string, attrs ...Attr) {
	x.writeIndent()
	x.write("<" + name)
	x.writeAttrs(attrs)
	x.write(">\n")
	x.stack = append(x.stack, name)
}

// EndTag closes the innermost open element.
func (x *Writer) EndTag() {
	if len(x.stack) == 0 {
		return
	}
	name := x.stack[len(x.stack)-1]
	x.stack = x.stack[:len(x.stack)-1]
	x.writeIndent()
	x.write("</" + name + ">\n")
}

// Tag writes an element with text content on a single line.
func (x *Writer) Tag(name, text string, attrs ...Attr) {
	x.writeIndent()
	x.write("<" + name)
	x.writeAttrs(attrs)
	x.write(">" + EscapeText(text) + "</" + name + ">\n")
}

// EmptyTag writes a self-closing element.
func (x *Writer) EmptyTag(name string, attrs ...Attr) {
	x.writeIndent()
	x.write("<" + name)
	x.writeAttrs(attrs)
	x.write("/>\n")
}

// Flush closes any elements left open and flushes buffered output.
func (x *Writer) Flush() error {
	for len(x.stack) > 0 {
		x.EndTag()
	}
	if x.err != nil {
		return x.err
	}
	return x.w.Flush()
}

func (x *Writer) writeAttrs(attrs []Attr) {
	for _, a := range attrs {
		x.write(" " + a.Name + `="` + EscapeAttr(a.Value) + `"`)
	}
}

func (x *Writer) writeIndent() {
	for range x.stack {
		x.write(x.indent)
	}
}

func (x *Writer) write(s string) {
	if x.err != nil {
		return
	}
	_, x.err = x.w.WriteString(s)
}
