package gitpress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/tmkdo/gitpress/frontmatter"
)

// postsDir is the fixed directory holding one Markdown file per post.
const postsDir = "content/posts"

// PostStore maps blog posts onto individual frontmatter+Markdown files in the
// remote repository. It owns the slug-to-path mapping and the rename
// semantics; all writes go through the client's sha-conditional commits.
type PostStore struct {
	client *Client
	logger *log.Logger
}

// NewPostStore creates a PostStore over the given contents-API client.
func NewPostStore(client *Client) *PostStore {
	return &PostStore{
		client: client,
		logger: log.New("gitpress"),
	}
}

func postPath(slug string) string {
	return postsDir + "/" + slug + ".md"
}

// List returns every post sorted by date descending (string comparison).
// A file that cannot be fetched or decoded is skipped with a log line so one
// corrupt post cannot block listing the rest.
func (s *PostStore) List(ctx context.Context) ([]BlogPost, error) {
	entries, err := s.client.ListDir(ctx, postsDir)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]BlogPost, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(e.Name, ".md") {
			continue
		}
		file, err := s.client.GetFile(ctx, e.Path)
		if err != nil {
			if errors.Is(err, ErrAuth) {
				return nil, err
			}
			s.logger.Warnf("skipping post %s: %v", e.Name, err)
			continue
		}
		slug := strings.TrimSuffix(e.Name, ".md")
		posts = append(posts, decodePost(slug, file.Content))
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})
	return posts, nil
}

// Get returns the post stored under slug, or ErrNotFound.
func (s *PostStore) Get(ctx context.Context, slug string) (BlogPost, error) {
	file, err := s.client.GetFile(ctx, postPath(slug))
	if err != nil {
		return BlogPost{}, fmt.Errorf("get post %s: %w", slug, err)
	}
	return decodePost(slug, file.Content), nil
}

// Save writes the post as one commit. When originalSlug is non-empty and
// differs from post.Slug this is a rename: the old file is deleted first
// (best effort, since the write's correctness is the new file existing) and the
// new file is created unconditionally. Otherwise the current revision marker
// is fetched so a concurrent edit of the same slug fails with ErrConflict
// instead of being silently overwritten.
func (s *PostStore) Save(ctx context.Context, post BlogPost, originalSlug string) error {
	path := postPath(post.Slug)
	message := "Create post: " + post.Title
	if originalSlug != "" {
		message = "Update post: " + post.Title
	}

	rename := originalSlug != "" && originalSlug != post.Slug
	if rename {
		oldPath := postPath(originalSlug)
		old, err := s.client.GetFile(ctx, oldPath)
		if err == nil {
			err = s.client.DeleteFile(ctx, oldPath, "Delete old version: "+originalSlug, old.SHA)
		}
		if err != nil {
			// Compensation marker for operators: the rename proceeds, but the
			// old file may be orphaned and needs a manual sweep.
			s.logger.Errorf("rename %s -> %s: old file not deleted, possible orphan: %v",
				originalSlug, post.Slug, err)
		}
	}

	var sha string
	if !rename {
		existing, err := s.client.GetFile(ctx, path)
		switch {
		case err == nil:
			sha = existing.SHA
		case errors.Is(err, ErrNotFound):
			// Brand-new slug: unconditional create.
		default:
			return fmt.Errorf("save post %s: %w", post.Slug, err)
		}
	}

	body := frontmatter.Encode(postMetadata(post), post.Content)
	if err := s.client.PutFile(ctx, path, []byte(body), message, sha); err != nil {
		return fmt.Errorf("save post %s: %w", post.Slug, err)
	}
	return nil
}

// Delete removes the post stored under slug. The current revision marker is
// fetched first, so a missing post fails with ErrNotFound and a concurrent
// rewrite fails with ErrConflict.
func (s *PostStore) Delete(ctx context.Context, slug string) error {
	path := postPath(slug)
	file, err := s.client.GetFile(ctx, path)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", slug, err)
	}
	if err := s.client.DeleteFile(ctx, path, "Delete post: "+slug, file.SHA); err != nil {
		return fmt.Errorf("delete post %s: %w", slug, err)
	}
	return nil
}

// postMetadata builds the frontmatter header for a post. Key order is the
// stored header order.
func postMetadata(post BlogPost) *frontmatter.Metadata {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	m := frontmatter.NewMetadata()
	m.Set("title", frontmatter.String(post.Title))
	m.Set("excerpt", frontmatter.String(post.Excerpt))
	m.Set("date", frontmatter.String(post.Date))
	m.Set("author", frontmatter.String(post.Author))
	m.Set("category", frontmatter.String(post.Category))
	m.Set("tags", frontmatter.StringArray(tags))
	m.Set("image", frontmatter.String(post.Image))
	m.Set("published", frontmatter.Bool(post.Published))
	return m
}

// decodePost maps a stored file back onto a BlogPost. The canonical publish
// flag is the "published" boolean; files written before that field existed
// carry a legacy "status" string instead, which is honored on read only and
// rewritten as "published" on the next save.
func decodePost(slug string, content []byte) BlogPost {
	meta, body := frontmatter.Decode(string(content))

	published := true
	if v, ok := meta.Get("published"); ok && v.Kind() == frontmatter.KindBool {
		published = v.AsBool()
	} else if v, ok := meta.Get("status"); ok {
		published = v.AsString() == "published"
	}

	return BlogPost{
		Slug:      slug,
		Title:     metaString(meta, "title"),
		Excerpt:   metaString(meta, "excerpt"),
		Date:      metaString(meta, "date"),
		Author:    metaString(meta, "author"),
		Category:  metaString(meta, "category"),
		Tags:      metaStrings(meta, "tags"),
		Image:     metaString(meta, "image"),
		Published: published,
		Content:   body,
	}
}

func metaString(m *frontmatter.Metadata, key string) string {
	if v, ok := m.Get(key); ok && v.Kind() == frontmatter.KindString {
		return v.AsString()
	}
	return ""
}

func metaStrings(m *frontmatter.Metadata, key string) []string {
	if v, ok := m.Get(key); ok && v.Kind() == frontmatter.KindStringArray {
		return v.AsStringArray()
	}
	return []string{}
}
