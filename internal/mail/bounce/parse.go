// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	// Registers decoders for non UTF-8 charsets found in provider bounces.
	_ "github.com/emersion/go-message/charset"
)

// maxPartBytes caps how much of a single MIME part is read.
const maxPartBytes = 1 << 20

var htmlTag = regexp.MustCompile(`(?s)<[^>]*>`)

// ParseBounce reads a raw RFC 5322 message and returns the text the extractor
// should scan: every text/plain and message/delivery-status part, or the
// tag-stripped HTML parts when no plain text exists.
func ParseBounce(raw io.Reader) (string, error) {
	entity, err := message.Read(raw)
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return "", fmt.Errorf("bounce: read message: %w", err)
	}

	var plain, html strings.Builder

	walkErr := entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			return err
		}
		mediaType, _, _ := part.Header.ContentType()
		if mediaType == "" {
			mediaType = "text/plain"
		}
		if strings.HasPrefix(mediaType, "multipart/") {
			return nil
		}

		var target *strings.Builder
		switch mediaType {
		case "text/plain", "message/delivery-status", "message/global-delivery-status":
			target = &plain
		case "text/html":
			target = &html
		default:
			return nil
		}

		body, err := io.ReadAll(io.LimitReader(part.Body, maxPartBytes))
		if err != nil {
			return err
		}
		target.Write(body)
		target.WriteString("\n")
		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("bounce: walk message: %w", walkErr)
	}

	if plain.Len() > 0 {
		return plain.String(), nil
	}
	return htmlTag.ReplaceAllString(html.String(), " "), nil
}
