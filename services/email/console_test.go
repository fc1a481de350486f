package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/internal/testutil"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf, testutil.NewLogger())

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Jane", Address: "jane@x.io"}},
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: struct{ Name, UID, Token string }{"Jane", "uid", "tok-en"},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Contains(t, msg.TextContent, "Hello Jane,")
	assert.Contains(t, msg.TextContent, conf.FrontendBaseURL+"/password-reset/uid/tok-en")
	assert.Contains(t, msg.HTMLContent, conf.FrontendBaseURL+"/password-reset/uid/tok-en")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleService_format(t *testing.T) {
	conf := core.NewTestConfig()
	svc := &consoleService{conf: conf, subjPrefix: "[Darasa] "}

	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "a@x.io"}, {Address: "b@x.io"}},
		Subject:     "Hi",
		TextContent: "plain",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Darasa] Hi\r\n")
	assert.Contains(t, body, "To: <a@x.io>, <b@x.io>\r\n")
	assert.Contains(t, body, "plain")
	assert.False(t, strings.Contains(body, "text/html"))
}

func TestConsoleServiceMock_unknownTemplate(t *testing.T) {
	logger := testutil.NewLogger()
	svc := NewConsoleServiceMock(core.NewTestConfig(), logger)

	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: "a@x.io"}},
		TemplateName: "nope",
	})
	assert.Empty(t, svc.SentMessages())
	assert.Len(t, logger.Entries("error"), 1)
}
