// Package languages defines the closed set of editor languages and their
// starter templates. Adding a language means adding an entry to both tables.
package languages

const (
	JavaScript = "javascript"
	Python     = "python"
)

// Default is the language used when a client does not specify one.
const Default = JavaScript

var templates = map[string]string{
	JavaScript: `// Write your JavaScript code here

function solution() {
  // Your code here
  console.log("Hello, World!");
}

solution();`,
	Python: `# Write your Python code here

def solution():
    # Your code here
    print("Hello, World!")

solution()`,
}

// reports whether lang is a supported language
func Valid(lang string) bool {
	_, ok := templates[lang]
	return ok
}

// returns the starter template for lang, falling back to the default
// language's template for unknown values
func Template(lang string) string {
	if tmpl, ok := templates[lang]; ok {
		return tmpl
	}

	return templates[Default]
}

// returns the supported language names
func All() []string {
	return []string{JavaScript, Python}
}
