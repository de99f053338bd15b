package extract

import (
	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/registry"
)

// Merge combines candidate fields from the manifest, the README document
// and the host descriptor under a fixed precedence: manifest over document
// over descriptor. The merge is field-by-field, so a manifest that names
// the server but omits tags still receives tags from the document. An
// absent field (nil) never shadows a set one, and a set-but-empty value in
// a higher source does not fall through to a lower one.
//
// The descriptor only ever supplies name, author and description: the name
// title-cased from the repository slug, the author from the owner login.
func Merge(manifest, document *registry.Extracted, descriptor *github.Descriptor) *registry.Extracted {
	merged := &registry.Extracted{}

	var fromDescriptor registry.Extracted
	if descriptor != nil {
		if name := registry.TitleFromSlug(descriptor.Name); name != "" {
			fromDescriptor.Name = &name
		}
		if descriptor.OwnerLogin != "" {
			owner := descriptor.OwnerLogin
			fromDescriptor.Author = &owner
		}
		if descriptor.Description != "" {
			desc := descriptor.Description
			fromDescriptor.Description = &desc
		}
	}

	sources := []*registry.Extracted{manifest, document, &fromDescriptor}
	for _, src := range sources {
		if src == nil {
			continue
		}
		mergeFields(merged, src)
	}

	return merged
}

// mergeFields copies every field of src that dst has not yet settled.
func mergeFields(dst, src *registry.Extracted) {
	if dst.Name == nil {
		dst.Name = src.Name
	}
	if dst.Author == nil {
		dst.Author = src.Author
	}
	if dst.Description == nil {
		dst.Description = src.Description
	}
	if dst.ToolsCount == nil && dst.ToolsCountRaw == nil {
		dst.ToolsCount = src.ToolsCount
		dst.ToolsCountRaw = src.ToolsCountRaw
	}
	if dst.Authentication == nil {
		dst.Authentication = src.Authentication
	}
	if dst.Deployment == nil {
		dst.Deployment = src.Deployment
	}
	if dst.Location == nil {
		dst.Location = src.Location
	}
	if dst.Tags == nil && dst.TagsRaw == nil {
		dst.Tags = src.Tags
		dst.TagsRaw = src.TagsRaw
	}
	if dst.IconURL == nil {
		dst.IconURL = src.IconURL
	}
	if dst.DetailedInfo == nil {
		dst.DetailedInfo = src.DetailedInfo
	}
}
