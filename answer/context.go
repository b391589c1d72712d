package answer

import (
	"strconv"
	"strings"

	"github.com/poiesic/minirag/core"
)

// Assemble numbers docs from 1 in the given order and joins them as
// "[1] <content>\n\n[2] <content>...". The numbers are the only document
// identifiers the generator sees.
func Assemble(docs []core.RetrievedDocument) string {
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("] ")
		sb.WriteString(doc.Content)
	}
	return sb.String()
}
