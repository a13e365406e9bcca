package telegraph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Telegraph's createPage takes content as a JSON array of nodes, not
// raw HTML. The renderer emits a small fixed tag set; this converts it.

type node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []any             `json:"children,omitempty"`
}

// nodesFromHTML parses html markup and serializes it into the node JSON
// the API expects.
func nodesFromHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	body := doc.Find("body")
	if len(body.Nodes) == 0 {
		return "[]", nil
	}

	var nodes []any
	for child := body.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if converted := convertNode(child); converted != nil {
			nodes = append(nodes, converted)
		}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("marshal nodes: %w", err)
	}
	return string(data), nil
}

func convertNode(n *html.Node) any {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return nil
		}
		return n.Data
	case html.ElementNode:
		converted := node{Tag: n.Data}
		for _, attr := range n.Attr {
			if attr.Key == "src" || attr.Key == "href" {
				if converted.Attrs == nil {
					converted.Attrs = make(map[string]string)
				}
				converted.Attrs[attr.Key] = attr.Val
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if c := convertNode(child); c != nil {
				converted.Children = append(converted.Children, c)
			}
		}
		return converted
	default:
		return nil
	}
}
