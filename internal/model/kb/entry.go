package kb

// Service describes one SAP AI service tracked by the knowledge base.
type Service struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	DocCount    int    `json:"doc_count"`
}

// Entry is a documentation entry stored in the knowledge base.
type Entry struct {
	ID          string   `json:"id,omitempty"`
	ServiceKey  string   `json:"service_key"`
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// EntryPatch is a partial update; only non-nil fields are sent.
type EntryPatch struct {
	Title       *string   `json:"title,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.URL == nil && p.Description == nil && p.Tags == nil
}
