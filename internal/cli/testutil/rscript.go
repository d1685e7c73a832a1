package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeRscript stands in for Rscript. It answers --version, prints TRUE for
// requireNamespace checks and "[1] 8" for other inline code, and for script
// files echoes the JSON argument payload back as the result. Sources that
// call rnorm(1) print a fixed draw and sources mentioning fail_here fail
// the way R does. Each run appends a line to $RBRIDGE_FAKE_LOG when set.
const fakeRscript = `#!/bin/sh
if [ -n "$RBRIDGE_FAKE_LOG" ]; then
  echo "$*" >> "$RBRIDGE_FAKE_LOG"
fi
if [ "$1" = "--version" ]; then
  echo "Rscript (R) version 4.4.1 (2024-06-14)"
  exit 0
fi
shift
if [ "$1" = "-e" ]; then
  case "$2" in
    *requireNamespace*) printf 'TRUE' ;;
    *) echo "[1] 8" ;;
  esac
  exit 0
fi
if grep -q fail_here "$1"; then
  echo "Error: R error in boom: bad input" >&2
  echo "Execution halted" >&2
  exit 1
fi
if grep -q 'rnorm(1)' "$1"; then
  echo "-0.626453810742332"
  exit 0
fi
sed -n "s/^args <- jsonlite::fromJSON('\(.*\)')\$/\1/p" "$1"
`

// FakeRscript writes an executable stand-in for Rscript and returns its
// path. Tests using it are skipped where /bin/sh is unavailable.
func FakeRscript(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake Rscript needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "Rscript")
	if err := os.WriteFile(path, []byte(fakeRscript), 0755); err != nil {
		t.Fatalf("failed to write fake Rscript: %v", err)
	}
	return path
}
