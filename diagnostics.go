package msgcacheperf

import (
	"io"
	"strings"
)

const skippedCommentLabel = "MessageCachePerformance skipped messages: "

// Every "--" is broken up so no key can end the comment early, whether with "-->"
// or "--!>".
var commentEscaper = strings.NewReplacer("--", "-&#45;")

// RenderSkipped writes the skipped keys of log as an HTML comment. An empty or nil
// log writes nothing.
func RenderSkipped(w io.Writer, log *SkippedKeyLog) error {
	keys := log.Keys()
	if len(keys) == 0 {
		return nil
	}

	for i, k := range keys {
		keys[i] = commentEscaper.Replace(k)
	}

	_, err := io.WriteString(w, "\n<!-- "+skippedCommentLabel+strings.Join(keys, ", ")+" -->\n")
	return err
}
