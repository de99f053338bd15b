// Package extract locates and interprets the weakly-structured sources of
// server metadata in a repository: manifest files, README documents and the
// host-reported descriptor. Each source yields a partial candidate record;
// Merge resolves them under a fixed precedence.
package extract

import (
	"github.com/tidwall/gjson"

	"github.com/mcpdir/ingest-server/internal/registry"
)

// parseJSONObject parses data as a JSON object. Anything else, including
// valid JSON of a different type, yields (_, false). Malformed input is
// never an error at this layer; it degrades to "candidate absent".
func parseJSONObject(data []byte) (gjson.Result, bool) {
	// gjson never rejects malformed input on its own, so validate first.
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, false
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return gjson.Result{}, false
	}
	return doc, true
}

// fieldsFromDocument maps a JSON document onto a candidate record. Only
// fields with a usable type are taken; everything else stays absent.
func fieldsFromDocument(doc gjson.Result) *registry.Extracted {
	extracted := &registry.Extracted{}

	extracted.Name = stringField(doc, "name")
	extracted.Author = stringField(doc, "author")
	extracted.Description = stringField(doc, "description")
	extracted.Authentication = stringField(doc, "authentication")
	extracted.Deployment = stringField(doc, "deployment")
	extracted.Location = stringField(doc, "location")
	extracted.IconURL = stringField(doc, "iconUrl")

	// The count arrives as a number or a numeric string; both shapes are
	// preserved for the validator to coerce.
	switch count := doc.Get("toolsCount"); count.Type {
	case gjson.Number:
		value := count.Num
		extracted.ToolsCount = &value
	case gjson.String:
		value := count.Str
		extracted.ToolsCountRaw = &value
	}

	// Tags are either an array or a comma-joined string.
	if tags := doc.Get("tags"); tags.IsArray() {
		collected := make([]string, 0)
		for _, tag := range tags.Array() {
			if tag.Type == gjson.String {
				collected = append(collected, tag.Str)
			}
		}
		extracted.Tags = collected
	} else if tags.Type == gjson.String {
		value := tags.Str
		extracted.TagsRaw = &value
	}

	if info := doc.Get("detailedInfo"); info.IsObject() {
		extracted.DetailedInfo = detailedInfoFromDocument(info)
	}

	return extracted
}

func detailedInfoFromDocument(doc gjson.Result) *registry.ExtractedDetailedInfo {
	info := &registry.ExtractedDetailedInfo{
		Capabilities:      stringField(doc, "capabilities"),
		DocumentationURL:  stringField(doc, "documentationUrl"),
		UsageInstructions: stringField(doc, "usageInstructions"),
	}

	if stats := doc.Get("statistics"); stats.IsObject() {
		info.Statistics = &registry.Statistics{
			RequestsPerMonth:    stringFieldValue(stats, "requestsPerMonth"),
			Uptime:              stringFieldValue(stats, "uptime"),
			AverageResponseTime: stringFieldValue(stats, "averageResponseTime"),
		}
	}

	return info
}

func stringField(doc gjson.Result, key string) *string {
	if value := doc.Get(key); value.Type == gjson.String {
		return &value.Str
	}
	return nil
}

func stringFieldValue(doc gjson.Result, key string) string {
	if value := doc.Get(key); value.Type == gjson.String {
		return value.Str
	}
	return ""
}
