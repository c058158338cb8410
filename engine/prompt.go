package engine

import (
	"fmt"
	"strings"

	"github.com/w-h-a/faqchat/index"
)

// composeUserTurn builds the single synthetic user turn: retrieved
// context first, the literal question second. It is a scratch artifact
// of one completion call and must never be persisted as history, or
// the retrieval payload would be resent on every later turn.
func composeUserTurn(sources []index.Result, query string) string {
	var sb strings.Builder

	sb.WriteString("CONTEXT:\n")

	if len(sources) == 0 {
		sb.WriteString("(no relevant documents found)\n")
	}

	for i, src := range sources {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, src.Metadata.Kind, src.Text))
		if len(src.Metadata.PairedText) > 0 {
			paired := "answer"
			if src.Metadata.Kind == index.KindAnswer {
				paired = "question"
			}
			sb.WriteString(fmt.Sprintf("   (%s: %s)\n", paired, src.Metadata.PairedText))
		}
	}

	sb.WriteString("\nQUESTION: ")
	sb.WriteString(strings.TrimSpace(query))

	return sb.String()
}
