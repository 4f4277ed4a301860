// Package redact strips cardholder and personal data from payloads before
// they reach a log sink or the transaction log. Every function is pure and
// idempotent: applying it to already-redacted data returns the same data.
package redact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaskedCVV replaces any card security code.
	MaskedCVV = "***"
	// Redacted replaces credentials and signatures.
	Redacted = "[REDACTED]"

	panPrefix = "****-****-****-"
)

// panPattern matches 13-19 digit runs, optionally grouped by spaces or dashes.
var panPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

type fieldClass int

const (
	classSafe fieldClass = iota
	classPAN
	classCVV
	className
	classEmail
	classSecret
	classDrop
	classAddress
)

// fieldClasses classifies keys after normalization (lower case, no '_' or '-').
// A key missing from this table is safe to log; string values still pass
// through ScrubPANs.
var fieldClasses = map[string]fieldClass{
	"cardnumber":      classPAN,
	"number":          classPAN,
	"pan":             classPAN,
	"accountnumber":   classPAN,
	"cvv":             classCVV,
	"cvv2":            classCVV,
	"cvc":             classCVV,
	"cvn":             classCVV,
	"cardcode":        classCVV,
	"securitycode":    classCVV,
	"fullname":        className,
	"firstname":       className,
	"lastname":        className,
	"holdername":      className,
	"cardholdername":  className,
	"customername":    className,
	"givenname":       className,
	"surname":         className,
	"email":           classEmail,
	"emailaddress":    classEmail,
	"receiptemail":    classEmail,
	"transactionkey":  classSecret,
	"password":        classSecret,
	"secret":          classSecret,
	"clientsecret":    classSecret,
	"secretkey":       classSecret,
	"apikey":          classSecret,
	"accesstoken":     classSecret,
	"authorization":   classSecret,
	"signature":       classSecret,
	"phone":           classDrop,
	"phonenumber":     classDrop,
	"line1":           classDrop,
	"line2":           classDrop,
	"address1":        classDrop,
	"address2":        classDrop,
	"street":          classDrop,
	"streetaddress":   classDrop,
	"billingaddress":  classAddress,
	"shippingaddress": classAddress,
	"billto":          classAddress,
	"shipto":          classAddress,
	"address":         classAddress,
	"billingdetails":  classAddress,
}

// personContexts are the parent keys under which a bare "name" belongs to a
// person. Elsewhere, such as line items or merchant descriptors, it is kept.
var personContexts = map[string]bool{
	"customer":       true,
	"payer":          true,
	"holder":         true,
	"cardholder":     true,
	"card":           true,
	"creditcard":     true,
	"paymentsource":  true,
	"billingdetails": true,
	"shipping":       true,
	"billto":         true,
	"shipto":         true,
}

// addressKeep lists the address fields retained for fraud analysis.
var addressKeep = map[string]bool{
	"city":               true,
	"state":              true,
	"country":            true,
	"locality":           true,
	"administrativearea": true,
}

func normalizeKey(k string) string {
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "_", "")
	return strings.ReplaceAll(k, "-", "")
}

func classify(key string) fieldClass {
	return fieldClasses[normalizeKey(key)]
}

// MaskPAN keeps only the last four digits: ****-****-****-1111.
func MaskPAN(pan string) string {
	if pan == "" {
		return ""
	}
	digits := onlyDigits(pan)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return panPrefix + digits
}

// MaskCVV always returns MaskedCVV for a non-empty value.
func MaskCVV(cvv string) string {
	if cvv == "" {
		return ""
	}
	return MaskedCVV
}

// MaskName reduces a name to its first initial: "John Doe" -> "J***".
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r) + "***"
}

// MaskEmail keeps the first local-part character and the domain:
// "john@example.com" -> "j***@example.com".
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return MaskName(email)
	}
	return MaskName(local) + "@" + domain
}

// ScrubPANs masks every PAN-looking digit run inside free text such as
// error messages or provider descriptions.
func ScrubPANs(s string) string {
	if s == "" {
		return s
	}
	return panPattern.ReplaceAllStringFunc(s, MaskPAN)
}

// Address drops street lines, name and phone, keeping city/state/country.
func Address(v map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range v {
		if addressKeep[normalizeKey(k)] {
			out[k] = valueIn(val, false)
		}
	}
	return out
}

// Map returns a sanitized copy of m. A bare "name" at the top level is
// treated as a person's name.
func Map(m map[string]any) map[string]any {
	return mapIn(m, true)
}

func mapIn(m map[string]any, person bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		class := classify(k)
		if class == classSafe && person && normalizeKey(k) == "name" {
			class = className
		}
		switch class {
		case classPAN:
			if s, ok := v.(string); ok {
				out[k] = MaskPAN(s)
			} else if v != nil {
				out[k] = MaskPAN(jsonScalar(v))
			} else {
				out[k] = nil
			}
		case classCVV:
			if v != nil {
				out[k] = MaskedCVV
			} else {
				out[k] = nil
			}
		case className:
			if s, ok := v.(string); ok {
				out[k] = MaskName(s)
			} else {
				out[k] = valueIn(v, true)
			}
		case classEmail:
			if s, ok := v.(string); ok {
				out[k] = MaskEmail(s)
			} else {
				out[k] = valueIn(v, false)
			}
		case classSecret:
			if v != nil {
				out[k] = Redacted
			} else {
				out[k] = nil
			}
		case classDrop:
			continue
		case classAddress:
			if nested, ok := v.(map[string]any); ok {
				out[k] = Address(nested)
			} else if _, ok := v.(string); ok {
				continue
			} else {
				out[k] = valueIn(v, false)
			}
		default:
			out[k] = valueIn(v, personContexts[normalizeKey(k)])
		}
	}
	return out
}

// Value sanitizes any JSON-decoded value. Numbers decoded as json.Number
// are scrubbed like strings; an untouched number stays a number.
func Value(v any) any {
	return valueIn(v, true)
}

func valueIn(v any, person bool) any {
	switch t := v.(type) {
	case map[string]any:
		return mapIn(t, person)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = valueIn(item, person)
		}
		return out
	case string:
		return ScrubPANs(t)
	case json.Number:
		if scrubbed := ScrubPANs(t.String()); scrubbed != t.String() {
			return scrubbed
		}
		return t
	default:
		return v
	}
}

// JSON sanitizes a raw JSON document. Input that is not JSON is kept as a
// PAN-scrubbed JSON string so nothing unparsed leaks through.
func JSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	decoded, err := decodeJSON(raw)
	if err != nil {
		out, _ := json.Marshal(ScrubPANs(string(raw)))
		return out
	}
	out, err := json.Marshal(Value(decoded))
	if err != nil {
		return nil
	}
	return out
}

// decodeJSON keeps numbers as json.Number so large ids survive and numeric
// card numbers can be scrubbed.
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("redact: trailing data after json value")
	}
	return decoded, nil
}

// Struct marshals v and sanitizes the result.
func Struct(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return JSON(raw)
}

func jsonScalar(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
