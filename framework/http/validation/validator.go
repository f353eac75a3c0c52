package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrValidation is wrapped by the error Validate returns.
var ErrValidation = errors.New("validation failed")

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation messages per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error joins every message, fields in sorted order.
func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.Bag[f]...)
	}
	return strings.Join(msgs, " ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *Errors) Unwrap() error { return ErrValidation }

// ── Validator ────────────────────────────────────────────────────────────────

// Rules maps a field to a pipe-separated rule string.
// e.g. Rules{"receive_id_type": "required|in:open_id,chat_id", "content": "required|json"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Validate returns the error bag as an error, or nil when every rule passes.
func (v *Validator) Validate() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

// ── Core validation loop ─────────────────────────────────────────────────────

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true

	fields := make([]string, 0, len(v.rules))
	for f := range v.rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := v.data[field]
		for _, rule := range strings.Split(v.rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			name, param, _ := strings.Cut(rule, ":")

			if name == "nullable" || name == "sometimes" {
				if value == "" {
					break
				}
				continue
			}

			check, ok := rules[name]
			if !ok {
				continue
			}
			if msg := check(value, param); msg != "" {
				v.errors.add(field, fmt.Sprintf(msg, field))
				break // stop on first failure
			}
		}
	}
}

// ruleFunc returns a message template with one %s for the field name, or ""
// when value passes.
type ruleFunc func(value, param string) string

var (
	alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	urlPrefix = regexp.MustCompile(`^https?://`)
)

var rules = map[string]ruleFunc{
	"required": func(value, _ string) string {
		if strings.TrimSpace(value) == "" {
			return "The %s field is required."
		}
		return ""
	},
	"numeric": func(value, _ string) string {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "The %s must be a number."
		}
		return ""
	},
	"integer": func(value, _ string) string {
		if _, err := strconv.Atoi(value); err != nil {
			return "The %s must be an integer."
		}
		return ""
	},
	"email": func(value, _ string) string {
		if _, err := mail.ParseAddress(value); err != nil {
			return "The %s must be a valid email address."
		}
		return ""
	},
	"url": func(value, _ string) string {
		if !urlPrefix.MatchString(value) {
			return "The %s must be a valid URL."
		}
		return ""
	},
	"json": func(value, _ string) string {
		if !json.Valid([]byte(value)) {
			return "The %s must be a valid JSON string."
		}
		return ""
	},
	"alpha_dash": func(value, _ string) string {
		if !alphaDash.MatchString(value) {
			return "The %s may only contain letters, numbers, dashes and underscores."
		}
		return ""
	},
	"regex": func(value, param string) string {
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			return "The %s format is invalid."
		}
		return ""
	},
	"min": func(value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			return "The %s must be at least " + param + " characters."
		}
		return ""
	},
	"max": func(value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return "The %s may not be greater than " + param + " characters."
		}
		return ""
	},
	"in": func(value, param string) string {
		for _, allowed := range strings.Split(param, ",") {
			if strings.TrimSpace(allowed) == value {
				return ""
			}
		}
		return "The selected %s is invalid."
	},
}
