package gitpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// settingsPath is the fixed location of the singleton settings document.
const settingsPath = "content/settings/general.json"

// SettingsStore maps the site-wide configuration onto a single JSON document
// in the remote repository. Logically exactly one settings document exists;
// physically it may not yet, in which case reads return the defaults.
type SettingsStore struct {
	client   *Client
	defaults SiteSettings
}

// NewSettingsStore creates a SettingsStore. The defaults are returned by Get
// until the first Save creates the document.
func NewSettingsStore(client *Client, defaults SiteSettings) *SettingsStore {
	if defaults.SocialLinks == nil {
		defaults.SocialLinks = map[string]string{}
	}
	return &SettingsStore{client: client, defaults: defaults}
}

// Get returns the decoded settings document, or the defaults when the
// document does not exist yet.
func (s *SettingsStore) Get(ctx context.Context) (SiteSettings, error) {
	file, err := s.client.GetFile(ctx, settingsPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.defaults, nil
		}
		return SiteSettings{}, fmt.Errorf("get settings: %w", err)
	}

	var settings SiteSettings
	if err := json.Unmarshal(file.Content, &settings); err != nil {
		return SiteSettings{}, fmt.Errorf("get settings: decode: %w", err)
	}
	if settings.SocialLinks == nil {
		settings.SocialLinks = map[string]string{}
	}
	return settings, nil
}

// Save serializes the settings as pretty-printed JSON and commits them. When
// the document already exists its revision marker makes the write
// conditional; otherwise this is a create.
func (s *SettingsStore) Save(ctx context.Context, settings SiteSettings) error {
	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("save settings: encode: %w", err)
	}

	var sha string
	existing, err := s.client.GetFile(ctx, settingsPath)
	switch {
	case err == nil:
		sha = existing.SHA
	case errors.Is(err, ErrNotFound):
		// First save creates the document.
	default:
		return fmt.Errorf("save settings: %w", err)
	}

	if err := s.client.PutFile(ctx, settingsPath, content, "Update site settings", sha); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
