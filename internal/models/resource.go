package models

// ResourceKind classifies a research resource.
type ResourceKind string

const (
	ResourceArticle  ResourceKind = "article"
	ResourceVideo    ResourceKind = "video"
	ResourceTutorial ResourceKind = "tutorial"
	ResourceDocs     ResourceKind = "docs"
)

// Resource is one ranked result returned by the Research Client.
type Resource struct {
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Kind  ResourceKind `json:"kind"`
	Focus string       `json:"focus"`
}
