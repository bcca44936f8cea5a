// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package normalize cleans raw message content.
//
// Normalization strips markup tolerantly (malformed markup never
// fails), repairs straight quote glyphs into paired curly variants,
// rewrites quote wrappers into "> sender: text" banner lines, and
// emits a provisional message-type hint for records whose explicit
// type field is absent or generic.
//
// Normalize is a pure function: identical input always produces
// identical output, which the pipeline relies on for idempotent
// re-transformation.
package normalize

import (
	"strings"
	"unicode"

	"github.com/poiesic/chatvault/core"
	"golang.org/x/net/html"
)

const (
	leftDoubleQuote  = '“' // “
	rightDoubleQuote = '”' // ”
	apostrophe       = '’' // ’
)

// mediaTags are tags whose presence hints that the message carries media.
var mediaTags = map[string]bool{
	"img":    true,
	"video":  true,
	"audio":  true,
	"source": true,
}

// breakTags are tags that terminate a line of text.
var breakTags = map[string]bool{
	"p":          true,
	"div":        true,
	"li":         true,
	"tr":         true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"blockquote": true,
}

// Normalize strips markup from raw content and returns the cleaned
// text together with a provisional message-type hint.
//
// The tag-stripping pass never fails: unmatched tags are removed,
// unknown entities are left verbatim, and anything the tokenizer
// cannot interpret is treated as text.
func Normalize(raw string) (string, core.MessageType) {
	if raw == "" {
		return "", core.MessageTypeUnknown
	}

	text, mediaSeen := strip(raw)
	text = tidyWhitespace(text)
	text = curlQuotes(text)

	hint := core.MessageTypeText
	switch {
	case mediaSeen:
		hint = core.MessageTypeMedia
	case text == "":
		hint = core.MessageTypeUnknown
	}
	return text, hint
}

// strip removes markup using a tolerant tokenizer pass. Quote wrappers
// (blockquote/q) are captured separately and emitted as banner lines.
func strip(raw string) (string, bool) {
	tokenizer := html.NewTokenizer(strings.NewReader(raw))

	var out strings.Builder
	var quoted strings.Builder
	quoteDepth := 0
	quoteSender := ""
	mediaSeen := false

	write := func(s string) {
		if quoteDepth > 0 {
			quoted.WriteString(s)
		} else {
			out.WriteString(s)
		}
	}

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			// EOF, or input the tokenizer cannot continue past. Either
			// way the pass ends with whatever was recovered.
			break
		}

		switch tokenType {
		case html.TextToken:
			write(tokenizer.Token().Data)

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			name := token.Data
			if mediaTags[name] {
				mediaSeen = true
				continue
			}
			switch name {
			case "blockquote", "q":
				if tokenType == html.SelfClosingTagToken {
					continue
				}
				quoteDepth++
				if quoteDepth == 1 {
					quoteSender = senderAttr(token)
					quoted.Reset()
				}
			case "br":
				write("\n")
			}

		case html.EndTagToken:
			name := tokenizer.Token().Data
			switch {
			case name == "blockquote" || name == "q":
				if quoteDepth == 0 {
					continue // unmatched closing tag, dropped
				}
				quoteDepth--
				if quoteDepth == 0 {
					out.WriteString("\n" + quoteBanner(quoteSender, quoted.String()) + "\n")
				}
			case breakTags[name]:
				write("\n")
			}
		}
	}

	// Unclosed quote wrapper: flush what was captured.
	if quoteDepth > 0 {
		out.WriteString("\n" + quoteBanner(quoteSender, quoted.String()) + "\n")
	}

	return out.String(), mediaSeen
}

// senderAttr extracts the quoted sender from a quote wrapper tag.
func senderAttr(token html.Token) string {
	for _, attr := range token.Attr {
		if attr.Key == "data-sender" || attr.Key == "cite" {
			if attr.Val != "" {
				return attr.Val
			}
		}
	}
	return "unknown"
}

// quoteBanner renders a quoted run as a fixed "> sender: text" line.
func quoteBanner(sender, text string) string {
	condensed := strings.Join(strings.Fields(text), " ")
	return "> " + sender + ": " + condensed
}

// tidyWhitespace trims trailing spaces per line, collapses blank-line
// runs to a single blank line, and trims the result.
func tidyWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")

	var kept []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank && len(kept) > 0 {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		blank = false
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// curlQuotes converts straight quote glyphs to paired curly variants.
// Double quotes alternate left/right within a line; the pairing state
// resets at each newline so an unbalanced quote never poisons the rest
// of the message. Straight apostrophes between letters become U+2019.
func curlQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	open := false
	for i, r := range runes {
		switch r {
		case '"':
			if open {
				b.WriteRune(rightDoubleQuote)
			} else {
				b.WriteRune(leftDoubleQuote)
			}
			open = !open
		case '\'':
			if i > 0 && i < len(runes)-1 && unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]) {
				b.WriteRune(apostrophe)
			} else {
				b.WriteRune(r)
			}
		case '\n':
			open = false
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
