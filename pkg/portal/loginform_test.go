package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLoginFormStockPage(t *testing.T) {
	html := `<html><body>
		<form action="/webapps/login" method="post">
			<input type="text" id="user_id" name="user_id">
			<input type="password" id="password" name="password">
			<input type="submit" id="entry-login" value="Login">
		</form>
	</body></html>`

	form, ok := DetectLoginForm(html)
	require.True(t, ok)
	assert.Equal(t, "#user_id", form.UsernameSelector)
	assert.Equal(t, "#password", form.PasswordSelector)
	assert.Equal(t, "#entry-login", form.SubmitSelector)
}

func TestDetectLoginFormNameFallback(t *testing.T) {
	html := `<html><body>
		<form>
			<input type="email" name="login">
			<input type="password" name="pw">
			<button type="submit">Sign in</button>
		</form>
	</body></html>`

	form, ok := DetectLoginForm(html)
	require.True(t, ok)
	assert.Equal(t, `input[name="login"]`, form.UsernameSelector)
	assert.Equal(t, `input[name="pw"]`, form.PasswordSelector)
	// Anonymous submit button: keep the stock selector.
	assert.Equal(t, DefaultLoginForm().SubmitSelector, form.SubmitSelector)
}

func TestDetectLoginFormAuthenticatedPage(t *testing.T) {
	html := `<html><body><div id="course-list">Welcome back</div></body></html>`

	_, ok := DetectLoginForm(html)
	assert.False(t, ok, "no password field means already authenticated")
}
