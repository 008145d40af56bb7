package report

import (
	"strings"

	"github.com/nevernicce/dashboard/internal/domain"
)

// MaxChunkLen is the transport limit for one message.
const MaxChunkLen = 4000

const segmentSeparator = "\n\n"

// SplitDocument greedily packs document segments into chunks of at most
// limit characters, splitting only at segment boundaries. A single
// segment longer than the limit becomes its own oversize chunk; the
// transport rejecting it is an accepted edge case.
func SplitDocument(doc domain.ReportDocument, limit int) []string {
	if limit <= 0 {
		limit = MaxChunkLen
	}

	var chunks []string
	var current strings.Builder
	for _, segment := range doc.Segments {
		need := len(segment)
		if current.Len() > 0 {
			need += len(segmentSeparator)
		}
		if current.Len() > 0 && current.Len()+need > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(segmentSeparator)
		}
		current.WriteString(segment)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
