package services

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// PromptData is the template input for reply prompts.
type PromptData struct {
	OrganizationName string
	Website          string
	Slug             string
	ThreadHistory    string
	Email            string
	MaxSteps         int
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptReplySystem: `You are an email assistant for {{.OrganizationName}}{{if .Website}} (website: {{.Website}}){{end}}.

MANDATORY WORKFLOW:
1. Before writing anything, call the searchKnowledgeBase tool with a query built from the key topics and questions in the email.
2. Read the "content" field of every entry in the "results" array the tool returns. That content is the only source of facts you may use.
3. If a result looks relevant but you need more context, call getDetailedInfo with the fileName and chunkIndex from that result's metadata and use its "fullContent".
4. Then write the reply.

RULES:
- You must call searchKnowledgeBase at least once. You have at most {{.MaxSteps}} tool rounds.
- Never invent information that is not in the tool results. If the knowledge base does not answer the question, say so politely and offer to follow up.
- The searchKnowledgeBase result looks like {"success": true, "message": "Found 2 relevant documents", "results": [{"rank": 1, "score": 0.91, "content": "...", "metadata": {"fileName": "policy.pdf", "chunkIndex": 5}}]}.

RESPONSE FORMAT:
- Reply with valid HTML only, using tags such as <p>, <br>, <strong>, <em>, <ul> and <li>.
- Do not return plain text.
- Do not wrap the reply in markdown code fences (no triple backticks, with or without a language tag).
- Write a helpful, natural, human-sounding email.`,

	driven.PromptReplyTask: `EMAIL THREAD HISTORY:
{{if .ThreadHistory}}{{.ThreadHistory}}{{else}}(no earlier messages){{end}}

NEW INCOMING EMAIL:
{{.Email}}

YOUR TASK:
STEP 1: Call searchKnowledgeBase now with a query capturing the main question of the email above.
STEP 2: Use the "content" of each result to answer. Call getDetailedInfo for more context around a promising result.
STEP 3: Write the HTML reply, grounded only in what the tools returned. Return only the raw HTML.`,

	driven.PromptSearchReminder: `You have not searched the knowledge base yet. Call searchKnowledgeBase with a query based on the email before you answer. Do not answer from memory.`,
}

// DefaultPrompts returns a copy of the built-in prompt templates.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		out[k] = v
	}
	return out
}

// renderPrompt loads a template from the store, falling back to the
// built-in default, and executes it.
func renderPrompt(store driven.PromptStore, name string, data PromptData) (string, error) {
	text := defaultPrompts[name]
	if store != nil {
		if custom, err := store.Load(name); err == nil && strings.TrimSpace(custom) != "" {
			text = custom
		}
	}

	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return buf.String(), nil
}

// FormatEmail renders an email as plain text for the model.
func FormatEmail(e domain.InboundEmail) string {
	var b strings.Builder
	from := e.FromAddress
	if e.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.FromName, e.FromAddress)
	}
	fmt.Fprintf(&b, "From: %s\n", from)
	if len(e.ToAddresses) > 0 {
		fmt.Fprintf(&b, "To: %s\n", strings.Join(e.ToAddresses, ", "))
	}
	if !e.ReceivedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", e.ReceivedAt.UTC().Format("Mon, 02 Jan 2006 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "Subject: %s\n\n", e.Subject)
	b.WriteString(strings.TrimSpace(emailBody(e)))
	return b.String()
}

// FormatThread renders prior thread messages, oldest first, skipping the
// message being answered.
func FormatThread(t *domain.Thread, currentID string) string {
	if t == nil {
		return ""
	}
	var parts []string
	for _, m := range t.Messages {
		if m.ID != "" && m.ID == currentID {
			continue
		}
		parts = append(parts, FormatEmail(m))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// emailBody prefers the text part and falls back to tag-stripped HTML.
func emailBody(e domain.InboundEmail) string {
	if strings.TrimSpace(e.Text) != "" {
		return e.Text
	}
	return stripTags(e.HTML)
}

func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
