package config

// Builtin returns the stock linter table. Each entry can be replaced from
// lintflow.toml by defining a [linter.<name>] with the same name.
//
// The patterns assume the GCC-style "file:line:col: kind: message" layout
// that most tools either emit natively or can be told to emit.
func Builtin() map[string]Linter {
	return map[string]Linter{
		"gcc": {
			Patterns: []string{"*.c", "*.h"},
			Command:  "gcc -fsyntax-only -Wall -Wextra $args $filename",
			Stderr:   true,
			Error:    `(.+?):(\d+):(\d+): (?:fatal )?error: (.+)`,
			Warning:  `(.+?):(\d+):(\d+): warning: (.+)`,
			Hint:     `(.+?):(\d+):(\d+): note: (.+)`,
		},
		"g++": {
			Patterns: []string{"*.cpp", "*.cc", "*.hpp"},
			Command:  "g++ -fsyntax-only -Wall -Wextra $args $filename",
			Stderr:   true,
			Error:    `(.+?):(\d+):(\d+): (?:fatal )?error: (.+)`,
			Warning:  `(.+?):(\d+):(\d+): warning: (.+)`,
			Hint:     `(.+?):(\d+):(\d+): note: (.+)`,
		},
		"shellcheck": {
			Patterns: []string{"*.sh", "*.bash"},
			Command:  "shellcheck --format gcc $args $filename",
			Error:    `(.+?):(\d+):(\d+): error: (.+)`,
			Warning:  `(.+?):(\d+):(\d+): warning: (.+)`,
			Hint:     `(.+?):(\d+):(\d+): note: (.+)`,
			Strip:    ` \[SC\d+\]$`,
		},
		"flake8": {
			Patterns: []string{"*.py"},
			Command:  "flake8 $args $filename",
			Error:    `(.+?):(\d+):(\d+): E\d+ (.+)`,
			Warning:  `(.+?):(\d+):(\d+): W\d+ (.+)`,
			Hint:     `(.+?):(\d+):(\d+): C\d+ (.+)`,
		},
		"luacheck": {
			Patterns: []string{"*.lua"},
			Command:  "luacheck --formatter plain --codes $args $filename",
			Error:    `(.+?):(\d+):(\d+): \(E\d+\) (.+)`,
			Warning:  `(.+?):(\d+):(\d+): \(W\d+\) (.+)`,
		},
		"govet": {
			Patterns: []string{"*.go"},
			Command:  "go vet $args $filename",
			Stderr:   true,
			Warning:  `(.+?):(\d+):(\d+): (.+)`,
		},
	}
}
