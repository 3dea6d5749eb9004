package schema

import (
	"strings"
	"testing"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/values"
)

const userDoc = `
title: User
fields:
  - key: name
    label: Name
    kind: text
    required: true
    rules: "min=2,max=32"
    placeholder: Full name
  - key: status
    label: Status
    kind: radio
    default: 1
    options:
      - label: Enabled
        value: 1
      - label: Disabled
        value: 0
  - key: dept
    label: Department
    kind: select
    show: "status == 1"
`

func TestParse_Registry(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(userDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "User" || len(doc.Fields) != 3 {
		t.Fatalf("unexpected document: %+v", doc)
	}

	loader := options.Static(options.Option{Label: "Ops", Value: 1})
	reg, err := doc.Registry(Bind{Key: "dept", Load: loader})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	name, _ := reg.Lookup("name")
	if !name.Required || name.Rules != "min=2,max=32" || name.Kind != field.KindText {
		t.Fatalf("name descriptor: %+v", name)
	}

	status, _ := reg.Lookup("status")
	if len(status.Options) != 2 || status.Default != 1 {
		t.Fatalf("status descriptor: %+v", status)
	}

	dept, _ := reg.Lookup("dept")
	if dept.Load == nil || dept.ShowRule != "status == 1" {
		t.Fatalf("dept descriptor: %+v", dept)
	}
}

func TestRegistry_SanitizesText(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
fields:
  - key: name
    label: "<script>alert(1)</script>Name"
    kind: text
    help: "<b>bold</b> help"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := doc.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	d, _ := reg.Lookup("name")
	if strings.Contains(d.Label, "<") || d.Label != "Name" {
		t.Fatalf("label not sanitized: %q", d.Label)
	}
	if d.Help != "bold help" {
		t.Fatalf("help not sanitized: %q", d.Help)
	}
}

func TestRegistry_BindValidation(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(userDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if _, err := doc.Registry(Bind{Key: "missing"}); err == nil {
		t.Fatalf("bind for undeclared field must error")
	}
	if _, err := doc.Registry(Bind{}); err == nil {
		t.Fatalf("bind without key must error")
	}
}

func TestRegistry_BindBehavior(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
fields:
  - key: confirm
    kind: text
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	reg, err := doc.Registry(Bind{
		Key: "confirm",
		Validate: func(value any, vals values.Map) string {
			if value != vals["password"] {
				return "passwords do not match"
			}
			return ""
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	d, _ := reg.Lookup("confirm")
	if d.Validate == nil {
		t.Fatalf("validator not bound")
	}
	if msg := d.Validate("a", values.Map{"password": "b"}); msg == "" {
		t.Fatalf("bound validator not functional")
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("fields: [")); err == nil {
		t.Fatalf("malformed YAML must error")
	}
	if _, err := Parse([]byte("title: empty")); err == nil {
		t.Fatalf("document without fields must error")
	}
}
