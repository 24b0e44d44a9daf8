package fat16

import "strings"

// Normalize implements spec §4.4's path normalization: "takes (base,
// input): if input is absolute start from '/', else concatenate base +
// '/' + input; tokenize on '/'; maintain a stack of components, dropping
// '.', popping on '..' (never below the root), pushing otherwise; re-emit
// as '/' + joined."
func Normalize(base, input string) string {
	var combined string
	if strings.HasPrefix(input, "/") {
		combined = input
	} else {
		combined = base + "/" + input
	}

	var stack []string
	for _, tok := range strings.Split(combined, "/") {
		switch tok {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, tok)
		}
	}

	if len(stack) == 0 {
		return "/"
	}
	return "/" + strings.Join(stack, "/")
}

// SplitPath separates a normalized absolute path into its parent directory
// and final component, e.g. "/USR/LIB" -> ("/USR", "LIB"). The root itself
// splits to ("/", "").
func SplitPath(path string) (dir, name string) {
	path = Normalize("/", path)
	if path == "/" {
		return "/", ""
	}
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return "/", path[1:]
	}
	return path[:idx], path[idx+1:]
}

// Tokens splits a normalized absolute path into its components. The root
// path yields an empty slice.
func Tokens(path string) []string {
	path = Normalize("/", path)
	if path == "/" {
		return nil
	}
	return strings.Split(path[1:], "/")
}

// Base returns the final component of path, "" for the root.
func Base(path string) string {
	_, name := SplitPath(path)
	return name
}

// Join appends name as a new final component of dir.
func Join(dir, name string) string {
	return Normalize(dir, name)
}
