package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFunction(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		fn          string
		wantErr     bool
		wantMissing bool
	}{
		{name: "present", source: "add <- function(x, y) x + y", fn: "add"},
		{name: "namespaced", source: "stats::median", fn: "stats::median"},
		{name: "substring is enough", source: "padding <- 1", fn: "add"},
		{name: "absent", source: "sub <- function(x, y) x - y", fn: "add", wantErr: true, wantMissing: true},
		{name: "empty name", source: "f <- 1", fn: "", wantErr: true, wantMissing: true},
		{name: "injection", source: "f <- 1; system('x')", fn: "f); system('x'", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFunction(tt.source, tt.fn)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "function", ve.Field)
			assert.Equal(t, tt.wantMissing, errors.Is(err, ErrFunctionNotFound))
		})
	}
}

func TestComposeStructured(t *testing.T) {
	got := ComposeStructured("add <- function(x, y) x + y", "add", `{"x":5,"y":3}`)

	want := "suppressPackageStartupMessages({\n" +
		"add <- function(x, y) x + y\n" +
		"})\n" +
		"args <- jsonlite::fromJSON('{\"x\":5,\"y\":3}')\n" +
		"result <- tryCatch(do.call(add, as.list(args)), error = function(e) stop('R error in add: ', conditionMessage(e), call. = FALSE))\n" +
		"json_out <- jsonlite::toJSON(result, auto_unbox = TRUE, force = TRUE, digits = 15, null = \"null\", na = \"null\", dataframe = \"columns\")\n" +
		"cat(json_out, \"\\n\")\n"
	assert.Equal(t, want, got)
}

func TestComposeInline(t *testing.T) {
	got := ComposeInline("add <- function(x, y) {\n  x + y\n};\n", "add", "x=5, y=3")
	assert.Equal(t,
		"add<-function(x,y){x+y};tryCatch(add(x=5,y=3),error=function(e)stop('R error in add: ',conditionMessage(e),call.=FALSE))",
		got)
}

func TestComposeInline_Demo(t *testing.T) {
	got := ComposeInline(DemoSource, DemoFunction, "")
	assert.Equal(t,
		"my_func<-function(){set.seed(1);rnorm(1)};tryCatch(my_func(),error=function(e)stop('R error in my_func: ',conditionMessage(e),call.=FALSE))",
		got)
}

func TestMinify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "operators", in: "x <- a + b * 2", want: "x<-a+b*2"},
		{name: "function body joined", in: "f <- function(x) x", want: "f<-function(x)x"},
		{name: "else", in: "if (a) 1 else 2", want: "if(a)1 else 2"},
		{name: "less than negative", in: "x < -1", want: "x< -1"},
		{name: "strings untouched", in: "paste('a  b',  \"c\td\")", want: "paste('a  b',\"c\td\")"},
		{name: "newlines", in: "{\n  x\n  }\n", want: "{x}"},
		{name: "comment dropped", in: "x <- 1 # set x\n", want: "x<-1"},
		{name: "hash in string", in: "cat(\"# not a comment\")", want: "cat(\"# not a comment\")"},
		{name: "escaped quote", in: `s <- 'it\'s  ok'`, want: `s<-'it\'s  ok'`},
		{name: "backtick name", in: "`my var` <- 2", want: "`my var`<-2"},
		{name: "statements in braces", in: "f <- function() {\n  set.seed(1)\n  rnorm(1)\n}\n", want: "f<-function(){set.seed(1);rnorm(1)}"},
		{name: "top level statements", in: "a <- 1\nb <- 'x'\n`c` <- a", want: "a<-1;b<-'x';`c`<-a"},
		{name: "statement after comment", in: "x <- 1 # one\ny <- 2", want: "x<-1;y<-2"},
		{name: "explicit separator kept", in: "{\n  a;\n  b\n}", want: "{a;b}"},
		{name: "break inside call", in: "sum(1,\n    2)\n", want: "sum(1,2)"},
		{name: "break inside index", in: "x[1\n]", want: "x[1]"},
		{name: "break after operator", in: "{\n  x <-\n    1 +\n    2\n}", want: "{x<-1+2}"},
		{name: "break after function header", in: "f <- function(x)\n  x * 2\n", want: "f<-function(x)x*2"},
		{name: "break after if header", in: "{\n  if (a)\n    b\n  c\n}", want: "{if(a)b;c}"},
		{name: "else on next line", in: "{\n  if (a) {\n    1\n  }\n  else 2\n}", want: "{if(a){1}else 2}"},
		{name: "multibyte string", in: "s <- 'é'\nt <- 1", want: "s<-'é';t<-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Minify(tt.in))
		})
	}
}
