package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	t.Parallel()

	t.Run("keeps source field order", func(t *testing.T) {
		t.Parallel()

		r, err := ParseRecord([]byte(`{"problem":"Find x.","solution":"x = 2","answer":"2","uuid":"a1"}`))
		require.NoError(t, err)
		require.Equal(t, []string{"problem", "solution", "answer", "uuid"}, r.Names())
		require.Equal(t, 4, r.Len())
	})

	t.Run("maps every JSON kind", func(t *testing.T) {
		t.Parallel()

		r, err := ParseRecord([]byte(`{"s":"text","n":1.50,"t":true,"f":false,"z":null,"l":[1,"a"],"o":{"b":1,"a":2}}`))
		require.NoError(t, err)

		tests := []struct {
			name string
			kind Kind
			text string
		}{
			{name: "s", kind: KindString, text: "text"},
			{name: "n", kind: KindNumber, text: "1.50"},
			{name: "t", kind: KindBool, text: "true"},
			{name: "f", kind: KindBool, text: "false"},
			{name: "z", kind: KindNull, text: "null"},
			{name: "l", kind: KindList, text: `[1,"a"]`},
			{name: "o", kind: KindObject, text: `{"b":1,"a":2}`},
		}

		for _, tc := range tests {
			v, ok := r.Get(tc.name)
			require.True(t, ok, tc.name)
			require.Equal(t, tc.kind, v.Kind(), tc.name)
			require.Equal(t, tc.text, v.String(), tc.name)
		}
	})

	t.Run("duplicate keys keep first position", func(t *testing.T) {
		t.Parallel()

		r, err := ParseRecord([]byte(`{"a":1,"b":2,"a":3}`))
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, r.Names())

		v, _ := r.Get("a")
		require.Equal(t, "3", v.String())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{`{"a":`, `[1,2]`, `"text"`, ``} {
			_, err := ParseRecord([]byte(input))
			require.Error(t, err, input)
		}
	})
}

func TestValueString(t *testing.T) {
	t.Parallel()

	nested := NewRecord()
	nested.Set("role", String("assistant"))
	nested.Set("content", String("<think>2+2</think>4"))

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{name: "zero value is null", value: Value{}, expected: "null"},
		{name: "string is raw", value: String(`say "hi"`), expected: `say "hi"`},
		{name: "number literal", value: Number("1e3"), expected: "1e3"},
		{name: "bool", value: Bool(true), expected: "true"},
		{name: "empty list", value: List(), expected: "[]"},
		{name: "list of strings", value: List(String("a"), String("b")), expected: `["a","b"]`},
		{name: "object keeps markers unescaped", value: Object(nested), expected: `{"role":"assistant","content":"<think>2+2</think>4"}`},
		{name: "nil object is empty", value: Object(nil), expected: "{}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, tc.value.String())
		})
	}
}

func TestRecordMarshalJSON(t *testing.T) {
	t.Parallel()

	r := NewRecord()
	r.Set("zeta", Number("1"))
	r.Set("alpha", List(Null(), Bool(false)))
	r.Set("mid", String("line\nbreak"))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"zeta":1,"alpha":[null,false],"mid":"line\nbreak"}`, string(data))

	raw, err := r.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"zeta":1,"alpha":[null,false],"mid":"line\nbreak"}`, string(raw))
}

func TestFieldsStopsEarly(t *testing.T) {
	t.Parallel()

	r := NewRecord()
	r.Set("a", Number("1"))
	r.Set("b", Number("2"))
	r.Set("c", Number("3"))

	var seen []string
	for name := range r.Fields() {
		seen = append(seen, name)
		if name == "b" {
			break
		}
	}
	require.Equal(t, []string{"a", "b"}, seen)
}
