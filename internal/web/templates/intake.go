// Package templates renders the server-side intake form.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/intake/internal/core"
)

// FormView is everything the intake page needs to render.
type FormView struct {
	Rules   []core.FieldRule
	Values  core.Submission
	Errors  map[string]string
	Flash   string
	Code    string
	Success bool
	Today   string
}

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:36rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
label{display:block;font-weight:600;margin-top:1rem}
input,select{width:100%;padding:.5rem;margin-top:.25rem;border:1px solid #d1d5db;border-radius:.375rem}
.invalid{border-color:#dc2626}
.field-error{color:#dc2626;font-size:.875rem;margin-top:.25rem}
.hint{color:#6b7280;font-size:.8rem}
.flash{padding:.75rem 1rem;border-radius:.375rem;margin-bottom:1rem}
.flash.ok{background:#dcfce7;color:#166534}
.flash.err{background:#fee2e2;color:#991b1b}
button{margin-top:1.5rem;padding:.6rem 1.25rem;border:0;border-radius:.375rem;background:#2563eb;color:#fff;font-weight:600}`

// IntakePage renders the full employee intake page.
func IntakePage(v FormView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>Add Employee</title><style>`)
		b.WriteString(pageStyle)
		b.WriteString(`</style></head><body><h1>Add Employee</h1>`)

		if v.Flash != "" {
			class := "flash err"
			if v.Success {
				class = "flash ok"
			}
			fmt.Fprintf(&b, `<div class="%s" role="status">%s`, class, templ.EscapeString(v.Flash))
			if v.Code != "" {
				fmt.Fprintf(&b, ` <small>(Code: %s)</small>`, templ.EscapeString(v.Code))
			}
			b.WriteString(`</div>`)
		}

		b.WriteString(`<form method="post" action="/" novalidate>`)
		for _, rule := range v.Rules {
			writeField(&b, rule, v)
		}
		b.WriteString(`<button type="submit">Add Employee</button></form></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeField(b *strings.Builder, rule core.FieldRule, v FormView) {
	id := templ.EscapeString(rule.Field)
	value := templ.EscapeString(v.Values.Value(rule.Field))
	msg, invalid := v.Errors[rule.Field]

	fmt.Fprintf(b, `<label for="%s">%s</label>`, id, templ.EscapeString(rule.Label))

	class := ""
	if invalid {
		class = ` class="invalid" aria-invalid="true"`
	}

	switch {
	case len(rule.EnumValues) > 0:
		fmt.Fprintf(b, `<select id="%s" name="%s"%s>`, id, id, class)
		b.WriteString(`<option value="">Select department</option>`)
		for _, opt := range rule.EnumValues {
			selected := ""
			if opt == v.Values.Value(rule.Field) {
				selected = " selected"
			}
			e := templ.EscapeString(opt)
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, e, selected, e)
		}
		b.WriteString(`</select>`)
	default:
		fmt.Fprintf(b, `<input id="%s" name="%s" type="%s" value="%s"%s`,
			id, id, templ.EscapeString(rule.InputType), value, class)
		if rule.InputMode != "" {
			fmt.Fprintf(b, ` inputmode="%s"`, templ.EscapeString(rule.InputMode))
		}
		if rule.MaxLength > 0 {
			fmt.Fprintf(b, ` maxlength="%s"`, strconv.Itoa(rule.MaxLength))
		}
		if rule.Field == core.FieldDateOfJoining && v.Today != "" {
			fmt.Fprintf(b, ` max="%s"`, templ.EscapeString(v.Today))
		}
		if rule.Required {
			b.WriteString(` required`)
		}
		b.WriteString(`>`)
	}

	if invalid {
		fmt.Fprintf(b, `<div class="field-error">%s</div>`, templ.EscapeString(msg))
	} else if rule.Hint != "" {
		fmt.Fprintf(b, `<div class="hint">%s</div>`, templ.EscapeString(rule.Hint))
	}
}

// ErrorAlert renders a standalone error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div class="flash err" role="alert"><strong>%s</strong>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<small>Code: %s</small>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
