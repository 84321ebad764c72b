package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LoginForm holds the CSS selectors needed to drive the portal's login page.
type LoginForm struct {
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
}

// DefaultLoginForm returns the portal's stock login selectors, used when
// detection finds a password field but cannot pin down the others.
func DefaultLoginForm() LoginForm {
	return LoginForm{
		UsernameSelector: "#user_id",
		PasswordSelector: "#password",
		SubmitSelector:   "#entry-login",
	}
}

// DetectLoginForm inspects a page's HTML for a login form. The second
// return value is false when the page carries no password input, which is
// how an already-authenticated session presents itself.
func DetectLoginForm(html string) (LoginForm, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return LoginForm{}, false
	}

	password := doc.Find(`input[type="password"]`).First()
	if password.Length() == 0 {
		return LoginForm{}, false
	}

	form := DefaultLoginForm()
	if sel := inputSelector(password); sel != "" {
		form.PasswordSelector = sel
	}

	if username := doc.Find(`input[type="text"], input[type="email"]`).First(); username.Length() > 0 {
		if sel := inputSelector(username); sel != "" {
			form.UsernameSelector = sel
		}
	}

	if submit := doc.Find(`input[type="submit"], button[type="submit"]`).First(); submit.Length() > 0 {
		if sel := inputSelector(submit); sel != "" {
			form.SubmitSelector = sel
		}
	}

	return form, true
}

// inputSelector builds a stable selector for an element, preferring id over
// name. Elements with neither are not addressable.
func inputSelector(sel *goquery.Selection) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := sel.Attr("name"); ok && name != "" {
		tag := goquery.NodeName(sel)
		return tag + `[name="` + name + `"]`
	}
	return ""
}
