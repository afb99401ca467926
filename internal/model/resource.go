package model

import (
	"net/url"
	"strings"
)

// FallbackResourceTitle is used when no title can be derived from a resource URL.
const FallbackResourceTitle = "Resource"

// ResourceType is a cosmetic tag on a resource link.
type ResourceType string

const (
	ResourceVideo   ResourceType = "video"
	ResourceArticle ResourceType = "article"
	ResourceLink    ResourceType = "link"
	ResourceOther   ResourceType = "other"
)

// ParseResourceType maps free text onto the closed set of resource types.
func ParseResourceType(s string) ResourceType {
	switch ResourceType(strings.ToLower(strings.TrimSpace(s))) {
	case ResourceVideo:
		return ResourceVideo
	case ResourceArticle:
		return ResourceArticle
	case ResourceLink, "":
		return ResourceLink
	default:
		return ResourceOther
	}
}

// Resource is a link attached to a course.
type Resource struct {
	ID    string       `json:"id"`
	URL   string       `json:"url" validate:"required"`
	Title string       `json:"title"`
	Type  ResourceType `json:"type,omitempty" validate:"omitempty,oneof=video article link other"`
}

// NewResource builds a resource with a fresh ID. An empty title is derived
// from the URL's hostname.
func NewResource(rawURL, title string, typ ResourceType) (Resource, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Resource{}, ErrInvalidURL
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = TitleFromURL(rawURL)
	}
	if typ == "" {
		typ = ResourceLink
	}
	return Resource{
		ID:    NewToken("res"),
		URL:   rawURL,
		Title: title,
		Type:  typ,
	}, nil
}

// TitleFromURL returns the URL's hostname without a leading "www.", or
// FallbackResourceTitle when the URL cannot be parsed.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return FallbackResourceTitle
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
