package event

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	nonDigitPattern = regexp.MustCompile(`[^0-9]`)
	numberPattern   = regexp.MustCompile(`\d+`)
)

// StripTags removes markup from rich-text message content and decodes
// HTML entities.
func StripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

// NormalizePhone strips everything except digits, preserving a single
// leading plus sign.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	plus := strings.HasPrefix(raw, "+")
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	if plus {
		return "+" + digits
	}
	return digits
}

// CleanValues trims, drops empties and deduplicates while preserving
// first-seen order.
func CleanValues(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ValuesField wraps a string list into the CRM multi-value field shape.
// Returns nil when nothing survives cleaning so the field is omitted.
func ValuesField(items []string) map[string]interface{} {
	cleaned := CleanValues(items)
	if len(cleaned) == 0 {
		return nil
	}
	values := make([]map[string]interface{}, 0, len(cleaned))
	for _, v := range cleaned {
		values = append(values, map[string]interface{}{"value": v})
	}
	return map[string]interface{}{"values": values}
}

// MapAgeValue buckets a free-form age description into one of the CRM's
// fixed age ranges. Numbers win over keywords; the highest number in the
// text decides the bucket. Unmappable input yields "".
func MapAgeValue(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	if nums := numberPattern.FindAllString(raw, -1); len(nums) > 0 {
		max := 0
		for _, n := range nums {
			if v, err := strconv.Atoi(n); err == nil && v > max {
				max = v
			}
		}
		switch {
		case max < 19:
			return "<19"
		case max < 26:
			return "<26"
		case max < 41:
			return "<41"
		default:
			return ">41"
		}
	}

	switch {
	case strings.Contains(raw, "under") || strings.Contains(raw, "teen") ||
		strings.Contains(raw, "minor") || strings.Contains(raw, "child"):
		return "<19"
	case strings.Contains(raw, "college") || strings.Contains(raw, "young adult") ||
		strings.Contains(raw, "student"):
		return "<26"
	case strings.Contains(raw, "middle") || strings.Contains(raw, "thirties"):
		return "<41"
	case strings.Contains(raw, "older") || strings.Contains(raw, "senior") ||
		strings.Contains(raw, "elder") || strings.Contains(raw, "retire") ||
		strings.Contains(raw, "adult"):
		return ">41"
	}
	return ""
}

// MapGenderValue normalizes a free-form gender description to the CRM's
// enum keys. Unmappable input yields "".
func MapGenderValue(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "man", "m", "masculine":
		return "male"
	case "female", "woman", "f", "feminine":
		return "female"
	}
	return ""
}
