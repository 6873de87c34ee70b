package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"net"
	"net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// smtpSession is what a fake SMTP server saw during one connection.
type smtpSession struct {
	auth  string
	from  string
	rcpts []string
	data  []byte
}

// newSMTPServer accepts a single connection and speaks just enough SMTP for
// net/smtp. RCPT commands for rejectRcpt get a 550.
func newSMTPServer(t *testing.T, rejectRcpt string) (string, int, <-chan smtpSession) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan smtpSession, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		var sess smtpSession
		defer func() { out <- sess }()

		tc := textproto.NewConn(conn)
		_ = tc.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tc.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO", "HELO":
				_ = tc.PrintfLine("250-localhost")
				_ = tc.PrintfLine("250 AUTH PLAIN")
			case "AUTH":
				parts := strings.Fields(line)
				if len(parts) == 3 {
					raw, _ := base64.StdEncoding.DecodeString(parts[2])
					sess.auth = string(raw)
				}
				_ = tc.PrintfLine("235 2.7.0 accepted")
			case "MAIL":
				sess.from = line
				_ = tc.PrintfLine("250 ok")
			case "RCPT":
				if rejectRcpt != "" && strings.Contains(line, rejectRcpt) {
					_ = tc.PrintfLine("550 no such user")
					continue
				}
				sess.rcpts = append(sess.rcpts, line)
				_ = tc.PrintfLine("250 ok")
			case "DATA":
				_ = tc.PrintfLine("354 go ahead")
				data, err := tc.ReadDotBytes()
				if err != nil {
					return
				}
				sess.data = data
				_ = tc.PrintfLine("250 queued")
			case "QUIT":
				_ = tc.PrintfLine("221 bye")
				return
			default:
				_ = tc.PrintfLine("502 unsupported")
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, p, out
}

func waitSession(t *testing.T, sessions <-chan smtpSession) smtpSession {
	t.Helper()
	select {
	case sess := <-sessions:
		return sess
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
		return smtpSession{}
	}
}

func TestEmailNotifier_Notify(t *testing.T) {
	host, port, sessions := newSMTPServer(t, "")
	n := NewEmailNotifier(EmailConfig{
		Server:   host,
		Port:     port,
		Username: "me@example.com",
		Password: "app-password",
		Timeout:  5 * time.Second,
	}, observability.DiscardLogger())
	report := testReport("## Summary\n**Great** focus today")

	err := n.Notify(context.Background(), report)
	require.NoError(t, err)

	sess := waitSession(t, sessions)
	assert.Equal(t, "\x00me@example.com\x00app-password", sess.auth)
	assert.Contains(t, sess.from, "<me@example.com>")
	require.Len(t, sess.rcpts, 1, "recipient defaults to the username")
	assert.Contains(t, sess.rcpts[0], "<me@example.com>")

	msg, err := mail.ReadMessage(bytes.NewReader(sess.data))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, report.Title, subject)
	assert.Equal(t, "text/plain; charset=UTF-8", msg.Header.Get("Content-Type"))

	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Summary\nGreat focus today")
	assert.NotContains(t, string(body), "**")
	assert.Equal(t, "email", n.Name())
}

func TestEmailNotifier_Recipients(t *testing.T) {
	host, port, sessions := newSMTPServer(t, "")
	n := NewEmailNotifier(EmailConfig{
		Server:   host,
		Port:     port,
		Username: "me@example.com",
		Password: "pw",
		To:       []string{"a@example.com", "b@example.com"},
	}, nil)

	require.NoError(t, n.Notify(context.Background(), testReport("body")))

	sess := waitSession(t, sessions)
	require.Len(t, sess.rcpts, 2)
	assert.Contains(t, sess.rcpts[0], "<a@example.com>")
	assert.Contains(t, sess.rcpts[1], "<b@example.com>")
	msg, err := mail.ReadMessage(bytes.NewReader(sess.data))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com, b@example.com", msg.Header.Get("To"))
}

func TestEmailNotifier_Failures(t *testing.T) {
	t.Run("requires config", func(t *testing.T) {
		n := NewEmailNotifier(EmailConfig{Server: "smtp.example.com", Username: "me@example.com"}, nil)

		err := n.Notify(context.Background(), testReport("x"))

		assert.ErrorContains(t, err, "required")
	})

	t.Run("rejected recipient", func(t *testing.T) {
		host, port, sessions := newSMTPServer(t, "nobody@")
		n := NewEmailNotifier(EmailConfig{
			Server:   host,
			Port:     port,
			Username: "me@example.com",
			Password: "pw",
			To:       []string{"nobody@example.com"},
		}, nil)

		err := n.Notify(context.Background(), testReport("x"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nobody@example.com")
		assert.Nil(t, waitSession(t, sessions).data)
	})

	t.Run("unreachable server", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().(*net.TCPAddr)
		require.NoError(t, ln.Close())

		n := NewEmailNotifier(EmailConfig{
			Server:   "127.0.0.1",
			Port:     addr.Port,
			Username: "me@example.com",
			Password: "pw",
			Timeout:  time.Second,
		}, nil)

		err = n.Notify(context.Background(), testReport("x"))

		assert.ErrorContains(t, err, "dial smtp")
	})
}

func TestNewEmailNotifier_Defaults(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{Username: "me@example.com"}, nil)

	assert.Equal(t, defaultSMTPPort, n.cfg.Port)
	assert.Equal(t, []string{"me@example.com"}, n.cfg.To)
	assert.Positive(t, n.cfg.Timeout)
}
