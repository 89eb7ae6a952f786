package ember

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Bind decodes the request into v, dispatching on Content-Type between
// a JSON body and form body values; for any other Content-Type it binds
// the URL query instead. XML deserialization is intentionally
// not handled here; it belongs to session persistence, not the core
// request model.
//
// This is a one-shot decode call, not a reflective RPC dispatcher: it
// builds no startup-time method registry and performs no reflection
// over handler parameter lists, only over the fields of v.
func (r *Request) Bind(v interface{}) error {
	ct := r.Headers.First("content-type")
	base, _, _ := splitMediaType(ct)

	switch {
	case base == "application/json":
		body, err := r.Body.Bytes()
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			return NewError(ErrKindMalformedRequest, "invalid json body: "+err.Error())
		}
		return nil

	case base == "application/x-www-form-urlencoded", strings.HasPrefix(base, "multipart/"):
		form, err := r.Form()
		if err != nil {
			return err
		}
		return bindQuery(*form, v)

	default:
		return bindQuery(r.URL.Query(), v)
	}
}

// splitMediaType returns the media type of a Content-Type header value,
// discarding parameters, without requiring a well-formed mime.ParseMediaType
// input (an empty header is common and not an error here).
func splitMediaType(ct string) (mediaType string, rest string, ok bool) {
	if ct == "" {
		return "", "", false
	}
	base, params, found := strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(base)), params, found
}

// bindQuery decodes q into v using mapstructure: a key with one value is
// passed as a string, a repeated key as a slice of all its values.
// mapstructure already handles slices, nested structs, and
// type coercion from strings without a hand-rolled reflect switch.
func bindQuery(q Query, v interface{}) error {
	data := map[string]interface{}{}
	for _, k := range q.Keys() {
		vs := q.Values(k)
		if len(vs) == 1 {
			data[k] = vs[0]
		} else {
			data[k] = vs
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           v,
		TagName:          "form",
	})
	if err != nil {
		return Wrap(err)
	}
	if err := decoder.Decode(data); err != nil {
		return NewError(ErrKindMalformedRequest, "invalid form body: "+err.Error())
	}
	return nil
}
