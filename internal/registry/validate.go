package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInsufficientData is returned when not even a minimal record could be
// assembled because no usable name or author was available from any source.
var ErrInsufficientData = errors.New("insufficient information extracted")

// fallbackDescription is used on minimal records when no source supplied
// a description.
const fallbackDescription = "Could not determine description."

// Validate turns a merged candidate into a canonical ServerEntry, applying
// type coercion and defaults. Identity fields missing after the merge are
// filled from the repository info; a record built that way is still a valid
// extraction outcome, not a failure. Only when even the fallback cannot
// supply a name and author does Validate return ErrInsufficientData.
func Validate(extracted *Extracted, repo RepoInfo, now time.Time) (*ServerEntry, error) {
	if extracted == nil {
		extracted = &Extracted{}
	}

	name := stringValue(extracted.Name)
	author := stringValue(extracted.Author)
	if name == "" || author == "" {
		// Downgrade to a minimal record rather than failing outright.
		if name == "" {
			name = TitleFromSlug(repo.Slug)
		}
		if author == "" {
			author = repo.OwnerLogin
		}
		if stringValue(extracted.Description) == "" {
			desc := fallbackDescription
			extracted.Description = &desc
		}
		slog.Warn("Falling back to minimal record",
			"githubUrl", repo.GithubURL, "name", name, "author", author)
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("%w: no usable name or author for %s", ErrInsufficientData, repo.GithubURL)
	}

	entry := &ServerEntry{
		ID:             uuid.NewString(),
		Name:           name,
		Author:         author,
		Description:    stringValue(extracted.Description),
		ToolsCount:     coerceToolsCount(extracted),
		Authentication: parseAuthentication(extracted.Authentication),
		Deployment:     parseDeployment(extracted.Deployment),
		Location:       stringValue(extracted.Location),
		Tags:           mergedTags(extracted),
		IconURL:        validURLOrEmpty(stringValue(extracted.IconURL), "iconUrl", repo.GithubURL),
		GithubURL:      repo.GithubURL,
		DetailedInfo:   validateDetailedInfo(extracted.DetailedInfo, repo.GithubURL),
		LastFetched:    now.UTC(),
	}

	return entry, nil
}

// TitleFromSlug derives a display name from a repository slug by splitting
// on dashes and underscores and capitalizing each word, mirroring how the
// host-reported repository name is presented.
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func mergedTags(extracted *Extracted) []string {
	if extracted.Tags != nil {
		return NormalizeTags(extracted.Tags)
	}
	if extracted.TagsRaw != nil {
		return NormalizeTags(SplitTagString(*extracted.TagsRaw))
	}
	return []string{}
}

// coerceToolsCount accepts JSON numbers and numeric strings; anything else,
// including negative values, defaults to zero.
func coerceToolsCount(extracted *Extracted) int {
	if extracted.ToolsCount != nil {
		count := int(*extracted.ToolsCount)
		if count < 0 {
			return 0
		}
		return count
	}
	if extracted.ToolsCountRaw != nil {
		count, err := strconv.Atoi(strings.TrimSpace(*extracted.ToolsCountRaw))
		if err != nil || count < 0 {
			return 0
		}
		return count
	}
	return 0
}

func parseAuthentication(value *string) Authentication {
	if value == nil {
		return AuthUnknown
	}
	switch Authentication(*value) {
	case AuthPublic, AuthAPIKey, AuthOAuth, AuthPrivate, AuthUnknown:
		return Authentication(*value)
	default:
		return AuthUnknown
	}
}

func parseDeployment(value *string) Deployment {
	if value == nil {
		return DeployUnknown
	}
	switch Deployment(*value) {
	case DeployLocal, DeployRemote, DeployCloudHosted, DeployUnknown:
		return Deployment(*value)
	default:
		return DeployUnknown
	}
}

// validURLOrEmpty drops a URL-shaped field that fails syntactic validation.
// A bad URL never fails the whole record.
func validURLOrEmpty(raw, field, githubURL string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		slog.Warn("Dropping invalid URL field", "field", field, "value", raw, "githubUrl", githubURL)
		return ""
	}
	return raw
}

func validateDetailedInfo(info *ExtractedDetailedInfo, githubURL string) *DetailedInfo {
	if info == nil {
		return nil
	}
	validated := &DetailedInfo{
		Capabilities:      stringValue(info.Capabilities),
		DocumentationURL:  validURLOrEmpty(stringValue(info.DocumentationURL), "documentationUrl", githubURL),
		UsageInstructions: stringValue(info.UsageInstructions),
	}
	if info.Statistics != nil {
		validated.Statistics = *info.Statistics
	}
	return validated
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
