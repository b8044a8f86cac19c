package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// ContentPart is one element of a message body. The set of implementations is
// closed: TextPart and ImagePart. Translators switch over the concrete type and
// return an error from the default branch.
type ContentPart interface {
	isContentPart()
}

// TextPart is plain text.
type TextPart struct {
	Value string
}

// ImagePart references an image either by URL (http(s) or data URL) or by
// inline base64 Data with its MediaType.
type ImagePart struct {
	URL       string
	Data      string
	MediaType string
}

func (TextPart) isContentPart()  {}
func (ImagePart) isContentPart() {}

// Inline returns the media type and base64 payload of the image. Data URLs are
// decoded from their prefix; remote URLs report ok=false.
func (p ImagePart) Inline() (mediaType string, data string, ok bool) {
	if p.Data != "" {
		return p.MediaType, p.Data, true
	}
	return ParseDataURL(p.URL)
}

// Ref returns a URL suitable for vendors that accept image URLs, building a
// data URL from inline data when needed.
func (p ImagePart) Ref() string {
	if p.URL != "" {
		return p.URL
	}
	mediaType := p.MediaType
	if mediaType == "" {
		mediaType = "image/png"
	}
	return "data:" + mediaType + ";base64," + p.Data
}

// ParseDataURL splits "data:<media type>;base64,<payload>" into its media type
// and payload.
func ParseDataURL(url string) (mediaType string, data string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, _, _ = strings.Cut(header, ";")
	return mediaType, payload, true
}

// wirePart is the JSON shape of a content part on the inbound API and on the
// OpenAI-compatible wire.
type wirePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
	Image    string        `json:"image,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

// Normalize turns raw message content into an ordered part sequence. It accepts
// a string, a single ContentPart, a []ContentPart, or undecoded JSON (string or
// array of parts). Normalizing an already normalized sequence returns an equal
// copy.
func Normalize(raw any) ([]ContentPart, error) {
	switch content := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []ContentPart{TextPart{Value: content}}, nil
	case ContentPart:
		return []ContentPart{content}, nil
	case []ContentPart:
		return slices.Clone(content), nil
	case json.RawMessage:
		return normalizeJSON(content)
	case []byte:
		return normalizeJSON(content)
	default:
		return nil, NewError(KindMalformedMessage, "unsupported content type %T", raw)
	}
}

func normalizeJSON(raw []byte) ([]ContentPart, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, WrapError(KindMalformedMessage, err, "invalid string content")
		}
		return []ContentPart{TextPart{Value: text}}, nil

	case '[':
		var wireParts []wirePart
		if err := json.Unmarshal(trimmed, &wireParts); err != nil {
			return nil, WrapError(KindMalformedMessage, err, "invalid content parts")
		}
		parts := make([]ContentPart, 0, len(wireParts))
		for i, wire := range wireParts {
			part, err := wire.toPart()
			if err != nil {
				return nil, WrapError(KindMalformedMessage, err, "content part %d", i)
			}
			parts = append(parts, part)
		}
		return parts, nil

	default:
		return nil, NewError(KindMalformedMessage, "content must be a string or an array of parts")
	}
}

func (w wirePart) toPart() (ContentPart, error) {
	switch w.Type {
	case "text":
		return TextPart{Value: w.Text}, nil
	case "image_url":
		if w.ImageURL == nil || w.ImageURL.URL == "" {
			return nil, fmt.Errorf("image_url part without url")
		}
		return newImageFromURL(w.ImageURL.URL), nil
	case "image":
		if w.Image == "" {
			return nil, fmt.Errorf("image part without image")
		}
		return newImageFromURL(w.Image), nil
	default:
		return nil, fmt.Errorf("unknown content part type %q", w.Type)
	}
}

func newImageFromURL(url string) ImagePart {
	part := ImagePart{URL: url}
	if mediaType, _, ok := ParseDataURL(url); ok {
		part.MediaType = mediaType
	}
	return part
}

// encodeContent renders parts back to the inbound JSON shape: a bare string for
// a single text part, otherwise an array of parts.
func encodeContent(parts []ContentPart) (json.RawMessage, error) {
	if len(parts) == 1 {
		if text, ok := parts[0].(TextPart); ok {
			return json.Marshal(text.Value)
		}
	}

	wireParts := make([]wirePart, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			wireParts = append(wireParts, wirePart{Type: "text", Text: p.Value})
		case ImagePart:
			wireParts = append(wireParts, wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: p.Ref()}})
		default:
			return nil, NewError(KindMalformedMessage, "unsupported content part %T", part)
		}
	}
	return json.Marshal(wireParts)
}

// JoinText concatenates the text parts of a sequence with sep, ignoring images.
func JoinText(parts []ContentPart, sep string) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if text, ok := part.(TextPart); ok {
			texts = append(texts, text.Value)
		}
	}
	return strings.Join(texts, sep)
}
