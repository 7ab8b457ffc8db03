package gitpress

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// uploadsDir is the repository directory for uploaded assets; servedPrefix is
// where the static site exposes them after the next rebuild.
const (
	uploadsDir   = "public/images/blog"
	servedPrefix = "/images/blog"
)

// stamper issues millisecond timestamps that are strictly increasing within
// the process, so two uploads in the same millisecond still get distinct
// paths. It is shared across the per-request Uploader instances.
type stamper struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newStamper() *stamper {
	return &stamper{now: time.Now}
}

func (s *stamper) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UnixMilli()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	return ts
}

// Uploader stores uploaded binary content write-once in the remote
// repository, named by upload timestamp plus the sanitized original filename.
// Uploaded assets are never updated or deleted by this layer.
type Uploader struct {
	client *Client
	stamps *stamper
}

// NewUploader creates an Uploader over the given contents-API client. Pass
// the same stamper to every Uploader in the process so upload paths never
// collide.
func NewUploader(client *Client, stamps *stamper) *Uploader {
	if stamps == nil {
		stamps = newStamper()
	}
	return &Uploader{client: client, stamps: stamps}
}

// Upload commits the content at a timestamp-unique path and returns the path
// the asset will be servable at once the site is rebuilt. The write is always
// an unconditional create.
func (u *Uploader) Upload(ctx context.Context, content []byte, filenameHint string) (string, error) {
	name := fmt.Sprintf("%d-%s", u.stamps.next(), SanitizeFilename(filenameHint))
	path := uploadsDir + "/" + name

	if err := u.client.PutFile(ctx, path, content, "Upload image: "+name, ""); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return servedPrefix + "/" + name, nil
}

// SanitizeFilename reduces a filename hint to a safe character set, keeping
// letters, digits, dots, and dashes, and collapsing everything else to a dash.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
