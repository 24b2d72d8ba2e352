package faq

import (
	"strings"

	"github.com/valpere/FAQScrapexter/internal/absolutizer"
	"github.com/valpere/FAQScrapexter/internal/dom"
	"github.com/valpere/FAQScrapexter/pkg/types"
)

// Extract builds the answer content of a resolved panel. Links and Images are
// never nil.
func Extract(panel dom.Node, baseURL string) Content {
	return Content{
		AnswerText: panel.Text(),
		AnswerHTML: absolutizer.Absolutize(panel.InnerHTML(), baseURL),
		Links:      extractLinks(panel, baseURL),
		Images:     extractImages(panel, baseURL),
	}
}

func extractLinks(panel dom.Node, baseURL string) []types.LinkRef {
	links := []types.LinkRef{}
	for _, a := range panel.Find("a[href]") {
		raw, _ := a.Attr("href")
		href := absolutizer.ResolveURL(raw, baseURL)

		text := a.Text()
		if text == "" {
			text = strings.TrimSpace(a.AttrOr("title", ""))
		}
		if text == "" {
			text = href
		}
		links = append(links, types.LinkRef{Text: text, Href: href})
	}
	return links
}

func extractImages(panel dom.Node, baseURL string) []types.ImageRef {
	images := []types.ImageRef{}
	for _, img := range panel.Find("img") {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			continue
		}
		images = append(images, types.ImageRef{
			Src: absolutizer.ResolveURL(src, baseURL),
			Alt: img.AttrOr("alt", ""),
		})
	}
	return images
}
