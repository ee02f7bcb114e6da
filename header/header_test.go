package header_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/header"
)

func sampleBuf(t *testing.T) []byte {
	t.Helper()

	text := "OBS_ID 1234567890\nSUBOBS_ID 1234567891\nMODE VOLTAGE_START\nSAMPLE_RATE 1280000\nSECS_PER_SUBOBS 8\nNTIMESAMPLES 64000\nNINPUTS 2\nMWAX_SUB_VER 1\n"
	buf := make([]byte, header.Length)
	copy(buf, text)

	return buf
}

func TestParseReadsKnownFields(t *testing.T) {
	h, err := header.Parse(sampleBuf(t))
	require.NoError(t, err)

	v, ok := h.GetInt("OBS_ID")
	require.True(t, ok)
	require.Equal(t, int64(1234567890), v)

	s, ok := h.GetString("MODE")
	require.True(t, ok)
	require.Equal(t, "VOLTAGE_START", s)
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := header.Parse(make([]byte, 10))
	require.Error(t, err)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	buf := make([]byte, header.Length)
	copy(buf, "NOVALUEHERE\n")

	_, err := header.Parse(buf)
	require.Error(t, err)
}

func TestSetUnknownKeyRequiresForce(t *testing.T) {
	h := header.New()

	err := h.Set("CUSTOM_FIELD", "7", false)
	require.Error(t, err)

	err = h.Set("CUSTOM_FIELD", "7", true)
	require.NoError(t, err)

	v, ok := h.GetInt("CUSTOM_FIELD")
	require.True(t, ok)
	require.Equal(t, int64(7), v)
}

func TestSetCoercesStringToRegisteredIntType(t *testing.T) {
	h := header.New()

	err := h.Set("OBS_ID", "42", false)
	require.NoError(t, err)

	v, ok := h.GetInt("OBS_ID")
	require.True(t, ok)
	require.Equal(t, int64(42), v)
}

func TestUnsetRemovesKey(t *testing.T) {
	h, err := header.Parse(sampleBuf(t))
	require.NoError(t, err)

	h.Unset("MODE")

	_, ok := h.GetString("MODE")
	require.False(t, ok)
}

func TestBytesRoundTripsThroughParse(t *testing.T) {
	h, err := header.Parse(sampleBuf(t))
	require.NoError(t, err)

	buf, err := h.Bytes()
	require.NoError(t, err)
	require.Len(t, buf, header.Length)

	h2, err := header.Parse(buf)
	require.NoError(t, err)

	v, ok := h2.GetInt("SAMPLE_RATE")
	require.True(t, ok)
	require.Equal(t, int64(1280000), v)
}

func TestKeysAreOrderedByRegistryThenAlphabetically(t *testing.T) {
	h := header.New()
	require.NoError(t, h.Set("SAMPLE_RATE", "1", true))
	require.NoError(t, h.Set("OBS_ID", "1", true))
	require.NoError(t, h.Set("ZZZ_UNKNOWN", "1", true))
	require.NoError(t, h.Set("AAA_UNKNOWN", "1", true))

	keys := h.Keys()
	require.Equal(t, []string{"OBS_ID", "SAMPLE_RATE", "AAA_UNKNOWN", "ZZZ_UNKNOWN"}, keys)
}

func TestPrintPrettyPadsFourColumns(t *testing.T) {
	h := header.New()
	for _, key := range []string{"OBS_ID", "SUBOBS_ID", "MODE", "UTC_START", "NBIT"} {
		require.NoError(t, h.Set(key, "1", true))
	}

	text, err := h.Print(format.TablePretty)
	require.NoError(t, err)

	// five keys: one full line of four padded (19+20)-wide columns, then one
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Len(t, lines[0], 4*(19+20))
	require.True(t, strings.HasPrefix(text, "OBS_ID"))
}

func TestPrintCSVListsOneKeyPerLine(t *testing.T) {
	h := header.New()
	require.NoError(t, h.Set("OBS_ID", "1", true))
	require.NoError(t, h.Set("SUBOBS_ID", "2", true))

	text, err := h.Print(format.TableCSV)
	require.NoError(t, err)
	require.Equal(t, "OBS_ID,1\nSUBOBS_ID,2\n", text)
}
