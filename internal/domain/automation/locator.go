package automation

import (
	"fmt"
)

// Strategy is a locator search strategy.
type Strategy int

const (
	ByAutomationID Strategy = iota
	ByClassName
	ByTagName
	ByName
	ByXPath
)

var strategies = map[string]Strategy{
	"accessibility id": ByAutomationID,
	"class name":       ByClassName,
	"tag name":         ByTagName,
	"name":             ByName,
	"xpath":            ByXPath,
}

func (s Strategy) String() string {
	for name, v := range strategies {
		if v == s {
			return name
		}
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// controlTypes are the tag names accepted by the tag name strategy.
var controlTypes = map[string]struct{}{}

func init() {
	for _, name := range []string{
		"Unknown", "AppBar", "Button", "Calendar", "CheckBox", "ComboBox",
		"Custom", "DataGrid", "DataItem", "Document", "Edit", "Group",
		"Header", "HeaderItem", "Hyperlink", "Image", "List", "ListItem",
		"MenuBar", "Menu", "MenuItem", "Pane", "ProgressBar", "RadioButton",
		"ScrollBar", "SemanticZoom", "Separator", "Slider", "Spinner",
		"SplitButton", "StatusBar", "Tab", "TabItem", "Table", "Text",
		"Thumb", "TitleBar", "ToolBar", "ToolTip", "Tree", "TreeItem",
		"Window",
	} {
		controlTypes[name] = struct{}{}
	}
}

// IsControlType reports whether name is a known control type.
func IsControlType(name string) bool {
	_, ok := controlTypes[name]
	return ok
}

// Locator is a parsed (using, value) pair.
type Locator struct {
	Strategy Strategy
	Using    string
	Value    string
}

// ParseLocator maps a WebDriver strategy name to a Locator.
func ParseLocator(using, value string) (Locator, error) {
	s, ok := strategies[using]
	if !ok {
		return Locator{}, notSupported("locator strategy '%s' is not supported", using)
	}
	if s == ByTagName && !IsControlType(value) {
		return Locator{}, validation("'%s' is not a known control type", value)
	}
	return Locator{Strategy: s, Using: using, Value: value}, nil
}

func (l Locator) notFound() error {
	return notFound("Element by '%s' value '%s' not found", l.Using, l.Value)
}

func (l Locator) matches(e Element) bool {
	switch l.Strategy {
	case ByAutomationID:
		return e.AutomationID() == l.Value
	case ByClassName:
		return e.ClassName() == l.Value
	case ByTagName:
		return e.ControlType() == l.Value
	case ByName:
		return e.Name() == l.Value
	}
	return false
}

// FindFirst returns the first descendant of root, in depth-first
// document order, matching the locator. It fails NotFound when nothing
// matches.
func (l Locator) FindFirst(root Element) (Element, error) {
	if l.Strategy == ByXPath {
		found, err := selectXPath(root, l.Value, 1)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, l.notFound()
		}
		return found[0], nil
	}

	var hit Element
	err := walkDescendants(root, func(e Element) bool {
		if l.matches(e) {
			hit = e
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, l.notFound()
	}
	return hit, nil
}

// FindAll returns every matching descendant of root in document order.
// Like FindFirst it fails NotFound when nothing matches.
func (l Locator) FindAll(root Element) ([]Element, error) {
	var (
		hits []Element
		err  error
	)
	if l.Strategy == ByXPath {
		hits, err = selectXPath(root, l.Value, 0)
	} else {
		err = walkDescendants(root, func(e Element) bool {
			if l.matches(e) {
				hits = append(hits, e)
			}
			return true
		})
	}
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, l.notFound()
	}
	return hits, nil
}

// walkDescendants visits root's descendants in pre-order, excluding root.
// Returning false from visit stops the walk.
func walkDescendants(root Element, visit func(Element) bool) error {
	var walk func(Element) (bool, error)
	walk = func(e Element) (bool, error) {
		children, err := e.Children()
		if err != nil {
			return false, fmt.Errorf("failed to enumerate children: %w", err)
		}
		for _, c := range children {
			if !visit(c) {
				return false, nil
			}
			more, err := walk(c)
			if err != nil || !more {
				return false, err
			}
		}
		return true, nil
	}
	_, err := walk(root)
	return err
}
