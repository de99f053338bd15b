// Package registry defines the canonical server entry model and the
// validation step that turns extracted candidate fields into it.
package registry

import "time"

// Authentication classifies how a server authenticates its callers.
type Authentication string

// Recognized authentication values. Anything else normalizes to AuthUnknown.
const (
	AuthPublic  Authentication = "Public"
	AuthAPIKey  Authentication = "API Key"
	AuthOAuth   Authentication = "OAuth"
	AuthPrivate Authentication = "Private"
	AuthUnknown Authentication = "Unknown"
)

// Deployment classifies where a server runs.
type Deployment string

// Recognized deployment values. Anything else normalizes to DeployUnknown.
const (
	DeployLocal       Deployment = "Local"
	DeployRemote      Deployment = "Remote"
	DeployCloudHosted Deployment = "Cloud-Hosted"
	DeployUnknown     Deployment = "Unknown"
)

// Statistics holds free-form operational figures reported by a manifest.
// The values are display strings (e.g. "1.2M+", "99.9%"), never parsed.
type Statistics struct {
	RequestsPerMonth    string `json:"requestsPerMonth,omitempty"`
	Uptime              string `json:"uptime,omitempty"`
	AverageResponseTime string `json:"averageResponseTime,omitempty"`
}

// DetailedInfo carries the optional extended metadata of a server entry.
type DetailedInfo struct {
	Statistics        Statistics `json:"statistics,omitempty"`
	Capabilities      string     `json:"capabilities,omitempty"`
	DocumentationURL  string     `json:"documentationUrl,omitempty"`
	UsageInstructions string     `json:"usageInstructions,omitempty"`
}

// ServerEntry is the canonical record produced by the ingestion pipeline.
// GithubURL is the unique key; it is always the canonical form of the
// repository URL.
type ServerEntry struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Author         string         `json:"author"`
	Description    string         `json:"description"`
	ToolsCount     int            `json:"toolsCount"`
	Authentication Authentication `json:"authentication"`
	Deployment     Deployment     `json:"deployment"`
	Location       string         `json:"location,omitempty"`
	Tags           []string       `json:"tags"`
	IconURL        string         `json:"iconUrl,omitempty"`
	GithubURL      string         `json:"githubUrl"`
	DetailedInfo   *DetailedInfo  `json:"detailedInfo,omitempty"`
	LastFetched    time.Time      `json:"lastFetchedFromGithubAt"`
}

// Extracted is a candidate record assembled from one source. Every field is
// optional: nil means the source said nothing, which is distinct from a
// set-but-empty value during merging. The Raw variants preserve source
// shapes that need coercion later (comma-joined tag strings, numeric
// strings for counts).
type Extracted struct {
	Name           *string
	Author         *string
	Description    *string
	ToolsCount     *float64
	ToolsCountRaw  *string
	Authentication *string
	Deployment     *string
	Location       *string
	Tags           []string
	TagsRaw        *string
	IconURL        *string
	DetailedInfo   *ExtractedDetailedInfo
}

// ExtractedDetailedInfo is the candidate form of DetailedInfo.
type ExtractedDetailedInfo struct {
	Statistics        *Statistics
	Capabilities      *string
	DocumentationURL  *string
	UsageInstructions *string
}

// RepoInfo identifies the repository an extraction ran against. It feeds
// the minimal-record fallback when the sources yield too little.
type RepoInfo struct {
	Slug       string
	OwnerLogin string
	GithubURL  string
}
