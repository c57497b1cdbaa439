package sheets

import (
	"strings"

	"golang.org/x/net/html"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// ParseForm reads rendered sheet markup into a Form. Every element with a
// class attribute becomes a control; named inputs, selects and textareas
// become the form's values.
func ParseForm(markup string) (*Form, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, sheeterr.Wrap(err, "failed to parse sheet markup")
	}

	var controls []*Control
	values := make(map[string]string)

	var walk func(n *html.Node, parent *Control)
	walk = func(n *html.Node, parent *Control) {
		next := parent
		if n.Type == html.ElementNode {
			collectValue(n, values)
			if classes := strings.Fields(attr(n, "class")); len(classes) > 0 {
				c := &Control{
					Tag:     n.Data,
					Classes: classes,
					Label:   strings.Join(strings.Fields(text(n)), " "),
					Data:    dataAttrs(n),
					Parent:  parent,
				}
				controls = append(controls, c)
				next = c
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, next)
		}
	}
	walk(root, nil)

	return NewForm(controls, values), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func dataAttrs(n *html.Node) map[string]string {
	out := make(map[string]string)
	for _, a := range n.Attr {
		if strings.HasPrefix(a.Key, "data-") {
			out[strings.TrimPrefix(a.Key, "data-")] = a.Val
		}
	}
	return out
}

func collectValue(n *html.Node, values map[string]string) {
	name := attr(n, "name")
	if name == "" {
		return
	}
	switch n.Data {
	case "input":
		values[name] = attr(n, "value")
	case "textarea":
		values[name] = text(n)
	case "select":
		for opt := n.FirstChild; opt != nil; opt = opt.NextSibling {
			if opt.Type != html.ElementNode || opt.Data != "option" {
				continue
			}
			for _, a := range opt.Attr {
				if a.Key == "selected" {
					values[name] = attr(opt, "value")
				}
			}
		}
	}
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
