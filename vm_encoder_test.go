package pegvm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const encoderGrammar = `
	Doc   <- Item (',' Item)* !.
	Item  <- {:key: [a-zA-Z_]+ :} '=' ( { 'on'i / 'off'i } / Str ) {}
	Str   <- '"' { (!'"' .)* } '"' &(',' / !.)
`

func TestProgramEncoding(t *testing.T) {
	p, err := CompileString(encoderGrammar, nil)
	require.NoError(t, err)

	data, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte("PEGV\x01"), data[:5])

	decoded, err := DecodeProgram(data, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(p.Code(), decoded.Code(), cmpCharsets); diff != "" {
		t.Errorf("code changed after decoding (-want +got):\n%s", diff)
	}
	assert.Equal(t, p.Rules(), decoded.Rules())
	assert.Equal(t, p.Captures(), decoded.Captures())
	assert.Equal(t, p.PrettyString(), decoded.PrettyString())

	input := `a=ON,b_c="x y",d=off`
	want, err := p.Match(input)
	require.NoError(t, err)
	require.True(t, want.Matched)
	got, err := decoded.Match(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("fingerprint", func(t *testing.T) {
		fp1, err := p.Fingerprint()
		require.NoError(t, err)
		fp2, err := decoded.Fingerprint()
		require.NoError(t, err)
		assert.Equal(t, fp1, fp2)

		other, err := CompileString(encoderGrammar+"\nExtra <- 'x'", nil)
		require.NoError(t, err)
		fp3, err := other.Fingerprint()
		require.NoError(t, err)
		assert.NotEqual(t, fp1, fp3)
	})

	t.Run("unmarshal keeps the config", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetInt("vm.max_steps", 3)
		decoded, err := DecodeProgram(data, cfg)
		require.NoError(t, err)
		_, err = decoded.Match(input)
		assert.ErrorIs(t, err, ErrStepLimit)
	})

	t.Run("programs built by hand", func(t *testing.T) {
		code := []Instruction{
			IChoice{Offset: 4},
			ISet{Set: NewCharset([]CharRange{{Lo: 'a', Hi: 'z'}, {Lo: 'é', Hi: 'é'}, {Lo: 'É', Hi: 'É'}, {Lo: 'λ', Hi: 'λ'}}, true)},
			IFullCapture{Kind: CaptureSimple, Size: 1, Index: 7},
			ICommit{Offset: 2},
			IChar{Char: 'é', CaseInsensitive: true},
			IEnd{},
		}
		p, err := NewProgram(code, nil)
		require.NoError(t, err)
		data, err := p.MarshalBinary()
		require.NoError(t, err)

		var decoded Program
		require.NoError(t, decoded.UnmarshalBinary(data))
		if diff := cmp.Diff(code, decoded.Code(), cmpCharsets); diff != "" {
			t.Errorf("code changed after decoding (-want +got):\n%s", diff)
		}

		r, err := decoded.Match("É")
		require.NoError(t, err)
		assert.Equal(t, 1, r.End)
		assert.Empty(t, r.Captures)

		r, err = decoded.Match("1")
		require.NoError(t, err)
		assert.Equal(t, []Capture{
			{Kind: CaptureSimple, Index: 7, Range: NewRange(0, 1), Parent: -1},
		}, r.Captures)
	})
}

func TestProgramDecodingErrors(t *testing.T) {
	p, err := CompileString(encoderGrammar, nil)
	require.NoError(t, err)
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	for _, test := range []struct {
		Name     string
		Data     []byte
		Expected error
	}{
		{"empty", nil, ErrBadEncoding},
		{"bad magic", []byte("NOPE\x01\x00\x00\x00"), ErrBadEncoding},
		{"bad version", append([]byte("PEGV\x09"), data[5:]...), ErrBadEncoding},
		{"truncated", data[:len(data)/2], ErrBadEncoding},
		{"trailing bytes", append(append([]byte{}, data...), 0), ErrBadEncoding},
		{"unknown opcode", []byte("PEGV\x01\x01\xff\x00\x00"), ErrBadEncoding},
		{"jump out of the program", []byte("PEGV\x01\x02\x0a\x0a\x00\x00\x00"), ErrBadAddress},
	} {
		t.Run(test.Name, func(t *testing.T) {
			_, err := DecodeProgram(test.Data, nil)
			assert.ErrorIs(t, err, test.Expected)
		})
	}
}
