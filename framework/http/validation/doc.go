// Package validation checks SDK call inputs before they are sent.
//
// Rules are pipe-separated strings on a map of field names:
//
//	v := validation.Make(map[string]string{
//	    "receive_id_type": "open_id",
//	    "msg_type":        "text",
//	    "content":         `{"text":"hi"}`,
//	}, validation.Rules{
//	    "receive_id_type": "required|in:open_id,user_id,union_id,email,chat_id",
//	    "msg_type":        "required|in:text,post,image,interactive",
//	    "content":         "required|json",
//	})
//
//	if err := v.Validate(); err != nil {
//	    // errors.Is(err, validation.ErrValidation) == true
//	}
//
// # Available Rules
//
//   - required  : present and non-empty
//   - numeric   : parseable as float64
//   - integer   : parseable as int
//   - email     : RFC 5322 address
//   - url       : starts with http:// or https://
//   - json      : valid JSON text
//   - alpha_dash: letters, numbers, dashes, underscores
//   - regex:re  : matches re
//   - min:n, max:n: length bounds in UTF-8 characters
//   - in:a,b,c  : one of the listed values
//   - nullable, sometimes: skip the remaining rules when the value is empty
//
// Fields are checked in sorted order and each field stops at its first
// failing rule.
package validation
