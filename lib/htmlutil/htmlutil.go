package htmlutil

import (
	"bytes"
	"context"
	"strings"

	"akleg-data/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = telemetry.Tracer("akleg.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// LooksLikeHTML reports whether a response body is an html document rather than plain text.
func LooksLikeHTML(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<pre")
}

// ExtractPreformatted returns the text of every <pre> element in the document joined by a newline,
// falling back to the text of <body> if there is no <pre>.
func ExtractPreformatted(ctx context.Context, body string) (string, error) {
	_, span := tracer.Start(ctx, "ExtractPreformatted")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return "", err
	}

	pre := doc.Find("pre")
	span.SetAttributes(attribute.Int("pre_count", pre.Length()))
	nodes := pre.Nodes
	if len(nodes) == 0 {
		nodes = doc.Find("body").Nodes
	}

	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, GetText(n))
	}
	return strings.Join(parts, "\n"), nil
}
