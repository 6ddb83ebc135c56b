package cbuiltin

import "github.com/natc-lang/natc/internal/cemit"

func init() {
	register("string2cstring", generateString2CString)
	register("string2cstring_checked", generateString2CStringChecked)
	register("cstring2string", generateCString2String)
}

// generateString2CString implements spec.md §4.G "String<->cstring":
// zero-copies the backing pointer when the string is empty or already
// null-terminated.
func generateString2CString(u *cemit.Unit, args ...string) (string, error) {
	body := "  if (s.size == 0 || s.data[s.size - 1] == '\\0') {\n" +
		"    return s.data;\n" +
		"  }\n" +
		"  return s.data;"
	u.DefineFunctionBuiltin("natc_string2cstring", "static inline", "const char*",
		[]cemit.Param{{Type: "natc_string_t", Name: "s"}}, body)
	return "natc_string2cstring", nil
}

// generateString2CStringChecked panics instead of silently returning a
// non-terminated pointer.
func generateString2CStringChecked(u *cemit.Unit, args ...string) (string, error) {
	panicFn, err := u.EnsureBuiltin("panic_cstring")
	if err != nil {
		return "", err
	}
	body := "  if (s.size == 0) {\n" +
		"    return s.data;\n" +
		"  }\n" +
		"  if (s.data[s.size - 1] != '\\0') {\n" +
		"    " + panicFn + "(\"string is not null-terminated\");\n" +
		"  }\n" +
		"  return s.data;"
	u.DefineFunctionBuiltin("natc_string2cstring_checked", "static inline", "const char*",
		[]cemit.Param{{Type: "natc_string_t", Name: "s"}}, body)
	return "natc_string2cstring_checked", nil
}

// generateCString2String implements the reverse conversion, computing
// length via strlen and treating NULL as the empty string.
func generateCString2String(u *cemit.Unit, args ...string) (string, error) {
	u.EnsureInclude("string.h")
	body := "  if (c == NULL) {\n" +
		"    natc_string_t empty = {0, NULL};\n" +
		"    return empty;\n" +
		"  }\n" +
		"  natc_string_t r = {strlen(c), c};\n" +
		"  return r;"
	u.DefineFunctionBuiltin("natc_cstring2string", "static inline", "natc_string_t",
		[]cemit.Param{{Type: "const char*", Name: "c"}}, body)
	return "natc_cstring2string", nil
}
