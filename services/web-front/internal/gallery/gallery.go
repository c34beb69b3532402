// Package gallery answers title lookups over one fetched image list.
package gallery

import (
	"strings"

	"mashalpipes.in/Website/services/web-front/internal/client"
)

// Gallery is built once per page view and never refreshed.
type Gallery struct {
	images       []client.Image
	imageBaseURL string
	placeholder  string
}

func New(images []client.Image, imageBaseURL, placeholder string) *Gallery {
	return &Gallery{
		images:       images,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		placeholder:  placeholder,
	}
}

// ImageByTitle returns the path of the first exact title match, or the placeholder.
func (g *Gallery) ImageByTitle(title string) string {
	for _, img := range g.images {
		if img.Title == title {
			return g.resolve(img.FilePath)
		}
	}
	return g.placeholder
}

// Filter keeps the images whose title is in allow, in list order. Duplicates are all kept.
func (g *Gallery) Filter(allow []string) []client.Image {
	set := make(map[string]struct{}, len(allow))
	for _, t := range allow {
		set[t] = struct{}{}
	}
	out := []client.Image{}
	for _, img := range g.images {
		if _, ok := set[img.Title]; ok {
			img.FilePath = g.resolve(img.FilePath)
			out = append(out, img)
		}
	}
	return out
}

func (g *Gallery) Len() int {
	return len(g.images)
}

// resolve turns a server relative path into an absolute URL.
func (g *Gallery) resolve(p string) string {
	if g.imageBaseURL == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return p
	}
	return g.imageBaseURL + p
}
