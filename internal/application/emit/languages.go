package emit

import "strings"

// PlainText is the destination's name for code without highlighting
const PlainText = "plain text"

var languageAliases = map[string]string{
	"py":         "python",
	"python":     "python",
	"js":         "javascript",
	"javascript": "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"tsx":        "typescript",
	"java":       "java",
	"c":          "c",
	"h":          "c",
	"cpp":        "c++",
	"c++":        "c++",
	"cc":         "c++",
	"csharp":     "c#",
	"cs":         "c#",
	"c#":         "c#",
	"go":         "go",
	"golang":     "go",
	"rust":       "rust",
	"rs":         "rust",
	"ruby":       "ruby",
	"rb":         "ruby",
	"php":        "php",
	"swift":      "swift",
	"kotlin":     "kotlin",
	"kt":         "kotlin",
	"scala":      "scala",
	"sql":        "sql",
	"shell":      "shell",
	"sh":         "shell",
	"zsh":        "shell",
	"bash":       "bash",
	"powershell": "powershell",
	"ps1":        "powershell",
	"yaml":       "yaml",
	"yml":        "yaml",
	"json":       "json",
	"toml":       "toml",
	"xml":        "xml",
	"html":       "html",
	"css":        "css",
	"scss":       "scss",
	"markdown":   "markdown",
	"md":         "markdown",
	"dockerfile": "docker",
	"docker":     "docker",
	"makefile":   "makefile",
	"make":       "makefile",
	"lua":        "lua",
	"r":          "r",
	"haskell":    "haskell",
	"elixir":     "elixir",
	"erlang":     "erlang",
	"dart":       "dart",
	"graphql":    "graphql",
	"mermaid":    "mermaid",
	"latex":      "latex",
	"tex":        "latex",
	"diff":       "diff",
	"text":       PlainText,
	"txt":        PlainText,
}

// Language maps a fence info word to a destination code language
func Language(info string) string {
	if lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(info))]; ok {
		return lang
	}
	return PlainText
}
