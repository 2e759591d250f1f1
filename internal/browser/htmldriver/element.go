package htmldriver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// element is a node of the document loaded at generation.
type element struct {
	d          *Driver
	sel        *goquery.Selection
	generation uint64
}

func (e *element) live() error {
	if err := e.d.usable(); err != nil {
		return err
	}
	if e.generation != e.d.generation {
		return browser.ErrStaleElement
	}
	return nil
}

func (e *element) tag() string {
	return goquery.NodeName(e.sel)
}

func (e *element) attr(name string) string {
	return strings.TrimSpace(e.sel.AttrOr(name, ""))
}

func (e *element) inputType() string {
	return strings.ToLower(e.attr("type"))
}

func (e *element) FindAll(_ context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	return e.d.find(e.sel, loc)
}

// Click performs the element's default action.
func (e *element) Click(ctx context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	if _, ok := e.sel.Attr("data-confirm"); ok {
		if !e.d.dialogArmed {
			// Dismissed confirm: the action does not happen.
			return nil
		}
		e.d.dialogArmed, e.d.dialogHandled = false, true
	}
	if target, ok := e.sel.Attr("data-fill"); ok {
		e.d.doc.Find("[id="+cssString(target)+"]").SetAttr("value", e.attr("data-value"))
		return nil
	}

	switch tag, typ := e.tag(), e.inputType(); {
	case tag == "a":
		href, ok := e.sel.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return nil
		}
		return e.d.Navigate(ctx, href)
	case tag == "input" && typ == "checkbox":
		if _, checked := e.sel.Attr("checked"); checked {
			e.sel.RemoveAttr("checked")
		} else {
			e.sel.SetAttr("checked", "checked")
		}
	case tag == "input" && typ == "radio":
		e.d.doc.Find(`input[type="radio"][name=` + cssString(e.attr("name")) + `]`).RemoveAttr("checked")
		e.sel.SetAttr("checked", "checked")
	case tag == "button" && (typ == "" || typ == "submit"), tag == "input" && (typ == "submit" || typ == "image"):
		return e.submit(ctx)
	}
	return nil
}

// editable reports how text is stored for the element.
func (e *element) editable() (value bool, ok bool) {
	switch e.tag() {
	case "input":
		switch e.inputType() {
		case "checkbox", "radio", "submit", "button", "image", "reset", "file", "hidden":
			return false, false
		}
		return true, true
	case "textarea":
		return false, true
	}
	_, ce := e.sel.Attr("contenteditable")
	return false, ce
}

func (e *element) Type(_ context.Context, text string) error {
	if err := e.live(); err != nil {
		return err
	}
	value, ok := e.editable()
	if !ok {
		return fmt.Errorf("element <%s> is not editable", e.tag())
	}
	if value {
		e.sel.SetAttr("value", e.sel.AttrOr("value", "")+text)
		return nil
	}
	e.sel.SetText(e.sel.Text() + text)
	return nil
}

func (e *element) Clear(context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	value, ok := e.editable()
	if !ok {
		return fmt.Errorf("element <%s> is not editable", e.tag())
	}
	if value {
		e.sel.SetAttr("value", "")
		return nil
	}
	e.sel.SetText("")
	return nil
}

func (e *element) Text(context.Context) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return normalize(e.sel.Text()), nil
}

// Visible checks the element and its ancestors for the usual ways markup
// hides things. Stylesheets are not evaluated.
func (e *element) Visible(context.Context) (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	if e.tag() == "input" && e.inputType() == "hidden" {
		return false, nil
	}
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		switch goquery.NodeName(s) {
		case "head", "script", "style", "template", "title":
			return false, nil
		}
		if _, hidden := s.Attr("hidden"); hidden {
			return false, nil
		}
		style := strings.ToLower(strings.ReplaceAll(s.AttrOr("style", ""), " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false, nil
		}
		if s.HasClass("d-none") {
			return false, nil
		}
	}
	return true, nil
}

func (e *element) Enabled(context.Context) (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	_, disabled := e.sel.Attr("disabled")
	return !disabled, nil
}

// submit sends the form owning the element, which is the submitter.
func (e *element) submit(ctx context.Context) error {
	var form *goquery.Selection
	if id := e.attr("form"); id != "" {
		form = e.d.doc.Find("form[id=" + cssString(id) + "]").First()
	} else {
		form = e.sel.Closest("form")
	}
	if form.Length() == 0 {
		return nil
	}

	action := e.attr("formaction")
	if action == "" {
		action = form.AttrOr("action", "")
	}
	method := strings.ToLower(e.attr("formmethod"))
	if method == "" {
		method = strings.ToLower(strings.TrimSpace(form.AttrOr("method", "get")))
	}

	values := formValues(e.d.doc, form)
	if name := e.attr("name"); name != "" {
		values.Add(name, e.sel.AttrOr("value", ""))
	}

	target, err := e.d.resolve(action)
	if err != nil {
		return fmt.Errorf("failed to resolve form action: %w", err)
	}
	var req *http.Request
	if method == "post" {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		target.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return e.d.load(req, true)
}

const controls = "input, textarea, select, [contenteditable][name]"

// formValues collects the successful controls of form, including those
// outside it that name it in their form attribute.
func formValues(doc *goquery.Document, form *goquery.Selection) url.Values {
	id := strings.TrimSpace(form.AttrOr("id", ""))
	fields := form.Find(controls)
	if id != "" {
		fields = fields.AddSelection(doc.Find("[form=" + cssString(id) + "]").Filter(controls))
	}

	values := url.Values{}
	fields.Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		if name == "" {
			return
		}
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}
		if owner, ok := s.Attr("form"); ok && owner != id {
			return
		}

		switch goquery.NodeName(s) {
		case "input":
			switch strings.ToLower(s.AttrOr("type", "")) {
			case "checkbox", "radio":
				if _, checked := s.Attr("checked"); checked {
					values.Add(name, s.AttrOr("value", "on"))
				}
			case "submit", "button", "image", "reset", "file":
			default:
				values.Add(name, s.AttrOr("value", ""))
			}
		case "textarea":
			values.Add(name, s.Text())
		case "select":
			opt := s.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = s.Find("option").First()
			}
			if opt.Length() > 0 {
				values.Add(name, opt.AttrOr("value", normalize(opt.Text())))
			}
		default:
			values.Add(name, s.Text())
		}
	})
	return values
}
