// Package render turns post markdown into HTML. It is a pure text
// transform with no data-model impact.
package render

import "github.com/russross/blackfriday/v2"

// Markdown renders source markdown to HTML.
func Markdown(source string) string {
	return string(blackfriday.Run([]byte(source)))
}
