package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRaisesGoogle(t *testing.T) {
	doc := `Do something.

Raises:
    ValueError: when input is bad.
    errors.ConfigError: when config is missing.

Returns:
    A value.
`
	require.Equal(t, []string{"ValueError", "errors.ConfigError"}, ExtractRaises(doc))
}

func TestExtractRaisesNumpy(t *testing.T) {
	doc := `Do something.

Raises
------
KeyError: missing key.
IOError: broken pipe.
`
	require.Equal(t, []string{"IOError", "KeyError"}, ExtractRaises(doc))
}

func TestExtractRaisesRest(t *testing.T) {
	doc := `Do something.

:raises TimeoutError: after the deadline.
:raises net.DialError: on refused connections.
`
	require.Equal(t, []string{"TimeoutError", "net.DialError"}, ExtractRaises(doc))
}

func TestExtractRaisesUnion(t *testing.T) {
	doc := `Raises:
    ValueError: bad.

:raises ValueError: also bad.
:raises KeyError: missing.
`
	require.Equal(t, []string{"KeyError", "ValueError"}, ExtractRaises(doc))
}

func TestExtractRaisesNone(t *testing.T) {
	require.Nil(t, ExtractRaises(""))
	require.Nil(t, ExtractRaises("Just a plain docstring.\n\nNothing else."))
}

func TestExtractRaisesSectionEndsAtBlankLine(t *testing.T) {
	doc := `Raises:
    ValueError: bad.

    KeyError: this is a new paragraph, not an entry.
`
	require.Equal(t, []string{"ValueError"}, ExtractRaises(doc))
}

func TestHasDeprecatedMarker(t *testing.T) {
	require.True(t, HasDeprecatedMarker("Old.\n\nDeprecated: use new()."))
	require.False(t, HasDeprecatedMarker("Mentions deprecated behavior inline."))
}

func TestCleanDocstring(t *testing.T) {
	cases := map[string]string{
		`"""Triple quoted."""`:     "Triple quoted.",
		`'''Single triple.'''`:     "Single triple.",
		`"plain"`:                  "plain",
		`'plain'`:                  "plain",
		`r"""Raw docstring."""`:    "Raw docstring.",
		`"""  padded  """`:         "padded",
		`"""multi` + "\n" + `line"""`: "multi\nline",
	}
	for raw, want := range cases {
		require.Equal(t, want, CleanDocstring(raw), "raw=%s", raw)
	}
}
