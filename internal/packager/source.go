package packager

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// SOURCE GENERATION
// =============================================================================
//
// Both launchers do the same thing at runtime on Windows: write the embedded
// script to a uniquely named temporary .bat file, run it through cmd /c with no
// console window, wait for it, then delete the file whatever the exit status.

var launcherTemplate = template.Must(template.New("runner.py").Parse(`import os, subprocess, tempfile
SCRIPT_CONTENT = {{.Literal}}


def main():
    with tempfile.NamedTemporaryFile(delete=False, suffix='.bat', mode='w', encoding='utf-8') as fh:
        fh.write(SCRIPT_CONTENT)
        script_path = fh.name
    try:
        creation_flags = getattr(subprocess, 'CREATE_NO_WINDOW', 0)
        subprocess.run(['cmd', '/c', script_path], check=False, creationflags=creation_flags)
    finally:
        try:
            os.remove(script_path)
        except OSError:
            pass


if __name__ == '__main__':
    main()
`))

var stubTemplate = template.Must(template.New("stub.cpp").Parse(`#include <windows.h>
#include <string>
#include <fstream>

int WINAPI WinMain(HINSTANCE, HINSTANCE, LPSTR, int) {
    char tempPath[MAX_PATH];
    if (!GetTempPathA(MAX_PATH, tempPath)) return 1;
    char tempFile[MAX_PATH];
    if (!GetTempFileNameA(tempPath, "ab", 0, tempFile)) return 1;
    std::string batFile = std::string(tempFile) + ".bat";
    DeleteFileA(tempFile);
    {
        std::ofstream out(batFile.c_str(), std::ios::binary);
        out << "{{.Escaped}}";
    }
    STARTUPINFOA si = {0};
    si.cb = sizeof(si);
    PROCESS_INFORMATION pi = {0};
    std::string cmd = std::string("cmd /c \"") + batFile + "\"";
    if (!CreateProcessA(NULL, &cmd[0], NULL, NULL, FALSE, CREATE_NO_WINDOW, NULL, NULL, &si, &pi)) {
        DeleteFileA(batFile.c_str());
        return 1;
    }
    WaitForSingleObject(pi.hProcess, INFINITE);
    CloseHandle(pi.hProcess);
    CloseHandle(pi.hThread);
    DeleteFileA(batFile.c_str());
    return 0;
}
`))

// LauncherSource returns the Python launcher that PyInstaller bundles.
func LauncherSource(script string) string {
	return render(launcherTemplate, struct{ Literal string }{PythonLiteral(script)})
}

// StubSource returns the C++ WinMain stub for the cross-compiler. escaped must
// already be an escaped C string body (see EscapeCString).
func StubSource(escaped string) string {
	return render(stubTemplate, struct{ Escaped string }{escaped})
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Both templates are static and only interpolate strings.
		panic(fmt.Sprintf("render %s: %v", tmpl.Name(), err))
	}
	return buf.String()
}

// EscapeCString escapes text for a C/C++ string literal body. Backslashes and
// double quotes are escaped, carriage returns dropped, and each newline becomes
// \n followed by a literal continuation ("\n" newline "), so the generated
// source keeps one script line per source line. Other bytes, including
// non-ASCII and invalid UTF-8, are copied unchanged.
func EscapeCString(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/8)
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\r':
		case '\n':
			b.WriteString("\\n\"\n\"")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// PythonLiteral quotes s as a single-quoted Python 3 string literal.
// Printable characters pass through unchanged; quotes, backslashes and control
// characters are escaped. Invalid UTF-8 becomes U+FFFD.
func PythonLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r == utf8.RuneError:
				b.WriteString(`\ufffd`)
			case r < 0x20 || r == 0x7f:
				fmt.Fprintf(&b, `\x%02x`, r)
			case !unicode.IsPrint(r) && r > 0x7f:
				if r > 0xffff {
					fmt.Fprintf(&b, `\U%08x`, r)
				} else {
					fmt.Fprintf(&b, `\u%04x`, r)
				}
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// NormalizeScript converts CRLF to LF and trims surrounding whitespace.
func NormalizeScript(script string) string {
	return strings.TrimSpace(strings.ReplaceAll(script, "\r\n", "\n"))
}
