package cli

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

// queryFilter returns a body filter printing only the value at path of a
// JSON body, followed by a newline. String values are printed unquoted; a
// path that matches nothing prints nothing. Non-JSON bodies pass through.
func queryFilter(path string) func(contentType string, body []byte) ([]byte, error) {
	path = convertBracketNotation(strings.TrimPrefix(path, "."))
	return func(contentType string, body []byte) ([]byte, error) {
		media, _, _ := strings.Cut(contentType, ";")
		if !strings.EqualFold(strings.TrimSpace(media), "application/json") {
			return body, nil
		}
		if !gjson.ValidBytes(body) {
			return nil, errdef.New(errdef.CodeParse, "response body is not valid JSON")
		}

		result := gjson.GetBytes(body, path)
		if path == "" {
			result = gjson.ParseBytes(body)
		}
		if !result.Exists() {
			return nil, nil
		}
		return []byte(result.String() + "\n"), nil
	}
}
