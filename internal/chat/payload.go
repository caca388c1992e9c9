package chat

import (
	"bytes"
	"encoding/json"
	"strings"
)

type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadDirectText
	PayloadParts
	PayloadBareString
	PayloadEncodedStream
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadDirectText:
		return "direct-text"
	case PayloadParts:
		return "parts"
	case PayloadBareString:
		return "bare-string"
	case PayloadEncodedStream:
		return "encoded-stream"
	default:
		return "none"
	}
}

// Payload is the normalized text of one message entry. Kind is PayloadNone
// exactly when Text is empty.
type Payload struct {
	Kind PayloadKind
	Text string
}

func (p Payload) Empty() bool {
	return p.Kind == PayloadNone
}

type partShape struct {
	Type string          `json:"type"`
	Text json.RawMessage `json:"text"`
}

// ParsePayload extracts the text of a message entry of unknown shape. The
// first matching shape wins: a direct content/text field, a list of typed
// parts, or the entry being a bare JSON string. Text carrying stream markers
// is cleaned. Malformed input yields PayloadNone.
func ParsePayload(raw json.RawMessage) Payload {
	kind, text := extract(bytes.TrimSpace(raw))
	if strings.TrimSpace(text) == "" {
		return Payload{Kind: PayloadNone}
	}

	if HasStreamMarkers(text) {
		cleaned := CleanStream(text)
		if strings.TrimSpace(cleaned) == "" {
			return Payload{Kind: PayloadNone}
		}
		return Payload{Kind: PayloadEncodedStream, Text: cleaned}
	}
	return Payload{Kind: kind, Text: text}
}

// NormalizeText is ParsePayload reduced to its text.
func NormalizeText(raw json.RawMessage) string {
	return ParsePayload(raw).Text
}

func extract(raw []byte) (PayloadKind, string) {
	if len(raw) == 0 {
		return PayloadNone, ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return PayloadNone, ""
		}
		return PayloadBareString, s
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return PayloadNone, ""
		}
		if s := rawString(fields["content"]); s != "" {
			return PayloadDirectText, s
		}
		if s := rawString(fields["text"]); s != "" {
			return PayloadDirectText, s
		}
		if parts := textParts(fields["parts"]); len(parts) > 0 {
			return PayloadParts, strings.Join(parts, "\n")
		}
	}
	return PayloadNone, ""
}

// textParts returns the text of every part typed "text". Parts that are not
// objects are skipped.
func textParts(raw json.RawMessage) []string {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil
	}
	texts := make([]string, 0, len(parts))
	for _, rawPart := range parts {
		var part partShape
		if err := json.Unmarshal(rawPart, &part); err != nil {
			continue
		}
		if part.Type == "text" {
			texts = append(texts, rawString(part.Text))
		}
	}
	return texts
}

// rawString decodes raw as a JSON string; any other JSON type is "".
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
