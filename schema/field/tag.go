package field

import (
	"fmt"
	"strings"
)

// Parse builds the descriptor of the Go field name from its struct tag value.
// An empty tag describes a plain column with default name and type.
//
//	`sqlite:"-"`                              ignored
//	`sqlite:"id,pk,autoincrement,type=integer"` identifier
//	`sqlite:"age,notnull,type=decimal(10,2)"` column
//	`sqlite:"nickname,transient"`              transient
func Parse(name, tag string) *Descriptor {
	if tag == "-" {
		return Ignore(name).Descriptor()
	}
	parts := splitTag(tag)
	b := Column(name).Column(strings.TrimSpace(parts[0]))
	opts := parts[1:]
	// The role decides which other options are valid.
	var role string
	for _, opt := range opts {
		opt = strings.ToLower(strings.TrimSpace(opt))
		var r Role
		switch opt {
		case "pk", "id":
			r = RoleID
		case "transient":
			r = RoleTransient
		default:
			continue
		}
		if role != "" && b.desc.Role != r {
			b.fail(fmt.Errorf("field %q: conflicting tag options %q and %q", name, role, opt))
			continue
		}
		role = opt
		b.desc.Role = r
	}
	for _, opt := range opts {
		opt = strings.TrimSpace(opt)
		key, value, hasValue := strings.Cut(opt, "=")
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "pk", "id", "transient":
		case "autoincrement":
			b.Autoincrement()
		case "notnull":
			b.NotNull()
		case "type":
			if !hasValue || strings.TrimSpace(value) == "" {
				b.fail(fmt.Errorf("field %q: empty type option", name))
				continue
			}
			b.Type(strings.TrimSpace(value))
		case "":
		default:
			b.fail(fmt.Errorf("field %q: unknown tag option %q", name, opt))
		}
	}
	return b.Descriptor()
}

// splitTag splits a tag on commas that are not inside parentheses, so type
// tokens such as decimal(10,2) stay intact.
func splitTag(tag string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range tag {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, tag[start:])
}
