// Package eml parses RFC 5322 message files into inbound emails, so a saved
// message can be replayed through the reply agent without the mail provider.
package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// MIMEType is the content type of a message file.
const MIMEType = "message/rfc822"

// Parse reads one message. Missing Message-ID headers get a random id
// so the reply ledger still has a key.
func Parse(raw []byte) (*domain.InboundEmail, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	email := &domain.InboundEmail{
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		MessageID: strings.Trim(strings.TrimSpace(msg.Header.Get("Message-Id")), "<>"),
	}

	if from, err := mail.ParseAddress(decodeHeader(msg.Header.Get("From"))); err == nil {
		email.FromAddress = from.Address
		email.FromName = from.Name
	}
	if to, err := msg.Header.AddressList("To"); err == nil {
		for _, a := range to {
			email.ToAddresses = append(email.ToAddresses, a.Address)
		}
	}
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date.UTC()
	}

	email.ID = email.MessageID
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	email.ThreadID = threadRoot(msg.Header)

	text, html, err := extractBody(msg.Header, msg.Body)
	if err != nil {
		return nil, err
	}
	email.Text = strings.TrimSpace(text)
	email.HTML = strings.TrimSpace(html)
	return email, nil
}

// threadRoot returns the first id in References, else In-Reply-To.
func threadRoot(h mail.Header) string {
	if refs := strings.Fields(h.Get("References")); len(refs) > 0 {
		return strings.Trim(refs[0], "<>")
	}
	return strings.Trim(strings.TrimSpace(h.Get("In-Reply-To")), "<>")
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

type header interface {
	Get(key string) string
}

// extractBody returns the plain-text and HTML bodies of a message or part.
func extractBody(h header, body io.Reader) (string, string, error) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(body, params["boundary"])
	}

	content, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return "", "", fmt.Errorf("%w: read body: %w", domain.ErrInvalidInput, err)
	}
	if mediaType == "text/html" {
		return "", string(content), nil
	}
	if strings.HasPrefix(mediaType, "text/") {
		return string(content), "", nil
	}
	return "", "", nil
}

// extractMultipart joins every text part, recursing into nested multiparts.
func extractMultipart(r io.Reader, boundary string) (string, string, error) {
	if boundary == "" {
		return "", "", nil
	}

	var textParts, htmlParts []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		if strings.EqualFold(dispositionOf(part), "attachment") {
			part.Close()
			continue
		}
		text, html, err := extractBody(part.Header, part)
		part.Close()
		if err != nil {
			continue
		}
		if text != "" {
			textParts = append(textParts, text)
		}
		if html != "" {
			htmlParts = append(htmlParts, html)
		}
	}
	return strings.Join(textParts, "\n"), strings.Join(htmlParts, "\n"), nil
}

func dispositionOf(p *multipart.Part) string {
	d, _, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return d
}

// decodeTransfer undoes base64 and quoted-printable transfer encodings.
// multipart.Reader already decodes quoted-printable parts.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes.
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		j := 0
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				p[j] = b
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}
