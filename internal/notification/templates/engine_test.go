package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_OTPCode(t *testing.T) {
	e := NewEngine(Config{}, nil)

	out, err := Render(context.Background(), e, OTPCode, OTPCodeData{AppName: "Chatter", Code: "004217", TTLMinutes: 5})
	require.NoError(t, err)

	assert.Equal(t, "Chatter: your verification code is 004217. It expires in 5 minutes.", out.SMSText)
	assert.Empty(t, out.Subject)
	assert.Empty(t, out.EmailHTML)
}

func TestRender_WelcomeEscapesHTML(t *testing.T) {
	e := NewEngine(Config{}, nil)

	out, err := Render(context.Background(), e, Welcome, WelcomeData{AppName: "Chatter", FirstName: "<b>Ada</b>", SupportEmail: "help@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Chatter, <b>Ada</b>!", out.Subject)
	assert.Contains(t, out.EmailText, "Hi <b>Ada</b>,")
	assert.Contains(t, out.EmailHTML, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.Contains(t, out.EmailHTML, "mailto:help@example.com")
}

func TestRenderAny_UnknownTemplate(t *testing.T) {
	_, err := NewEngine(Config{}, nil).RenderAny(context.Background(), "nope", nil)
	require.Error(t, err)
}

func TestRenderAny_DiskReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "otp.code.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{define "sms_text"}}v1 {{.Code}}{{end}}`), 0o600))

	e := NewEngine(Config{Dir: dir, Reload: true}, nil)
	data := OTPCodeData{Code: "123456"}

	out, err := Render(context.Background(), e, OTPCode, data)
	require.NoError(t, err)
	assert.Equal(t, "v1 123456", out.SMSText)

	require.NoError(t, os.WriteFile(path, []byte(`{{define "sms_text"}}v2 {{.Code}}{{end}}`), 0o600))
	out, err = Render(context.Background(), e, OTPCode, data)
	require.NoError(t, err)
	assert.Equal(t, "v2 123456", out.SMSText)
}
