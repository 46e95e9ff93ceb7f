package automation

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type attribute struct {
	name  string
	value string
}

// elementAttributes lists the attributes shared by the page source and the
// XPath navigator, in output order.
func elementAttributes(e Element) []attribute {
	attrs := []attribute{
		{"AutomationId", e.AutomationID()},
		{"ClassName", e.ClassName()},
		{"Name", e.Name()},
		{"IsEnabled", strconv.FormatBool(e.IsEnabled())},
		{"IsOffscreen", strconv.FormatBool(e.IsOffscreen())},
		{"IsPassword", strconv.FormatBool(e.IsPassword())},
		{"IsDialog", strconv.FormatBool(e.IsDialog())},
		{"FrameworkId", e.FrameworkID()},
		{"RuntimeId", runtimeIDString(e.RuntimeID(), ".")},
	}
	if r, ok := e.BoundingRectangle(); ok {
		attrs = append(attrs,
			attribute{"x", strconv.Itoa(r.X)},
			attribute{"y", strconv.Itoa(r.Y)},
			attribute{"width", strconv.Itoa(r.Width)},
			attribute{"height", strconv.Itoa(r.Height)},
		)
	}
	return attrs
}

func runtimeIDString(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

// WindowHandle is the concatenation of an element's runtime id components.
func WindowHandle(e Element) string {
	return runtimeIDString(e.RuntimeID(), "")
}

// controlTypeTag returns a tag name safe for XML output.
func controlTypeTag(e Element) string {
	name := e.ControlType()
	if name == "" || !isXMLName(name) {
		return "Unknown"
	}
	return name
}

func isXMLName(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// RenderSource serializes the subtree rooted at root as an XML document.
func RenderSource(root Element) (string, error) {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	if err := writeNode(&sb, root, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeNode(sb *strings.Builder, e Element, depth int) error {
	tag := controlTypeTag(e)
	indent := strings.Repeat("  ", depth)

	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(tag)
	for _, a := range elementAttributes(e) {
		sb.WriteByte(' ')
		sb.WriteString(a.name)
		sb.WriteString(`="`)
		if err := xml.EscapeText(sb, []byte(a.value)); err != nil {
			return err
		}
		sb.WriteByte('"')
	}

	children, err := e.Children()
	if err != nil {
		return fmt.Errorf("failed to enumerate children of %s: %w", tag, err)
	}
	if len(children) == 0 {
		sb.WriteString(" />\n")
		return nil
	}

	sb.WriteString(">\n")
	for _, c := range children {
		if err := writeNode(sb, c, depth+1); err != nil {
			return err
		}
	}
	sb.WriteString(indent)
	sb.WriteString("</")
	sb.WriteString(tag)
	sb.WriteString(">\n")
	return nil
}
