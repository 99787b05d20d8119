// Package export renders conversation transcripts into downloadable
// documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/limjiahao/docs-assistant/internal/model/chat"
)

// NameResolver maps a service key to its display name.
type NameResolver func(key string) string

// Markdown renders a conversation as a Markdown document: a header with the
// export time and question count, then one section per exchange. Failed
// exchanges keep their error line so the transcript matches what the user
// saw.
func Markdown(conv chat.Conversation, messages []chat.Message, resolve NameResolver) string {
	if resolve == nil {
		resolve = func(key string) string { return key }
	}

	questions := 0
	for _, msg := range messages {
		if msg.Role == chat.RoleUser {
			questions++
		}
	}

	lines := []string{
		"# SAP AI Documentation Assistant - Session Export",
		fmt.Sprintf("Exported: %s  ", time.Now().UTC().Format("2006-01-02 15:04 UTC")),
		fmt.Sprintf("Questions: %d", questions),
		"",
	}

	questionIndex := 0
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		if msg.Role != chat.RoleUser {
			continue
		}
		questionIndex++
		lines = append(lines, fmt.Sprintf("---\n## Q%d: %s\n", questionIndex, msg.Text))

		reply, ok := nextAssistant(messages, i)
		if !ok {
			lines = append(lines, "_No answer recorded._", "")
			continue
		}
		if reply.IsError() {
			lines = append(lines, fmt.Sprintf("**Error:** %s", reply.Text), "")
			continue
		}

		if reply.Meta != nil {
			if len(reply.Meta.Services) > 0 {
				names := make([]string, 0, len(reply.Meta.Services))
				for _, key := range reply.Meta.Services {
					names = append(names, resolve(key))
				}
				lines = append(lines, fmt.Sprintf("**Services:** %s  ", strings.Join(names, ", ")))
			}
			lines = append(lines, fmt.Sprintf("**Confidence:** %.0f%%  \n", reply.Meta.Confidence*100))
		}
		lines = append(lines, reply.Text, "")

		if reply.Meta != nil && len(reply.Meta.Links) > 0 {
			lines = append(lines, "**Links:**")
			for _, link := range reply.Meta.Links {
				lines = append(lines, fmt.Sprintf("- [%s](%s) - %s", link.Title, link.URL, link.Description))
			}
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n")
}

// Filename builds a timestamped export file name.
func Filename(now time.Time) string {
	return now.Format("sap_ai_assistant_20060102_150405.md")
}

func nextAssistant(messages []chat.Message, from int) (chat.Message, bool) {
	for i := from + 1; i < len(messages); i++ {
		if messages[i].Role == chat.RoleAssistant {
			return messages[i], true
		}
		if messages[i].Role == chat.RoleUser {
			break
		}
	}
	return chat.Message{}, false
}
