package gitpress

// BlogPost is the core content type. Each post is one Markdown file with a
// frontmatter header at content/posts/{slug}.md; the slug doubles as the
// filename stem and is the post's identity. A rename is delete-old plus
// create-new.
type BlogPost struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Date      string   `json:"date"`
	Author    string   `json:"author"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Image     string   `json:"image"`
	Published bool     `json:"published"`
	Content   string   `json:"content"`
}

// PostSummary is the slim shape served by the public listing endpoint.
type PostSummary struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Image    string `json:"image"`
	Date     string `json:"date"`
	Category string `json:"category"`
}

// SiteSettings is the singleton site-wide configuration document stored as
// pretty-printed JSON at content/settings/general.json. Reads synthesize a
// default object when the document does not exist yet.
type SiteSettings struct {
	SiteTitle       string            `json:"siteTitle"`
	SiteDescription string            `json:"siteDescription"`
	SiteURL         string            `json:"siteUrl"`
	Email           string            `json:"email"`
	SocialLinks     map[string]string `json:"socialLinks"`
}
