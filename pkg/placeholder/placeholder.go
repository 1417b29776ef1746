// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package placeholder fills "[KEY]" markers in email templates.
package placeholder

import "strings"

// Replace substitutes every "[KEY]" in template with values[KEY].
// Markers without a value are left untouched.
func Replace(template string, values map[string]string) string {
	if len(values) == 0 {
		return template
	}

	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "["+key+"]", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
