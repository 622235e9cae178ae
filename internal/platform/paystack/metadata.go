package paystack

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

var knownMetadataKeys = map[string]struct{}{
	"color":         {},
	"family":        {},
	"username":      {},
	"email":         {},
	"custom_fields": {},
}

type customField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        any    `json:"value"`
}

// RawMetadataKey holds metadata that is not an object, kept verbatim in Extra
const RawMetadataKey = "raw"

// decodeMetadata accepts metadata as an object, a JSON-encoded object string, or empty.
// Known keys are lifted into explicit nullable fields, everything else lands in Extra.
// Values missing at the top level are looked up in Paystack custom_fields.
// Anything else (free text, arrays, numbers) is kept under Extra["raw"] and
// leaves the voting fields nil. It never fails: the charge is confirmed either way.
func decodeMetadata(raw json.RawMessage) payment.Metadata {
	md := payment.Metadata{Extra: map[string]any{}}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == `""` || trimmed == "0" {
		return md
	}

	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal([]byte(trimmed), &encoded); err != nil {
			md.Extra[RawMetadataKey] = trimmed
			return md
		}
		trimmed = strings.TrimSpace(encoded)
		if trimmed == "" {
			return md
		}
	}

	var bag map[string]any
	if err := json.Unmarshal([]byte(trimmed), &bag); err != nil || bag == nil {
		md.Extra[RawMetadataKey] = rawValue(trimmed)
		return md
	}

	var fields []customField
	if cf, ok := bag["custom_fields"]; ok {
		if b, err := json.Marshal(cf); err == nil {
			_ = json.Unmarshal(b, &fields)
		}
	}

	md.Color = lookup(bag, fields, "color")
	md.Family = lookup(bag, fields, "family")
	md.Username = lookup(bag, fields, "username")
	md.Email = lookup(bag, fields, "email")

	for k, v := range bag {
		if _, known := knownMetadataKeys[k]; !known {
			md.Extra[k] = v
		}
	}

	return md
}

// rawValue keeps a JSON value in its decoded form, or the text itself when it is not JSON
func rawValue(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

func lookup(bag map[string]any, fields []customField, key string) *string {
	if v, ok := bag[key]; ok {
		if s := stringValue(v); s != "" {
			return &s
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.VariableName, key) {
			if s := stringValue(f.Value); s != "" {
				return &s
			}
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
