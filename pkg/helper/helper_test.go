package helper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtoiDef(t *testing.T) {
	require.Equal(t, 825, AtoiDef("825", 0))
	require.Equal(t, 2048, AtoiDef("not-a-number", 2048))
	require.Equal(t, uint(256), AtoiDef("256", uint(0)))
}

func TestParseBoolDef(t *testing.T) {
	require.True(t, ParseBoolDef("true", false))
	require.False(t, ParseBoolDef("false", true))
	require.True(t, ParseBoolDef("garbage", true))
}

func TestSplitList(t *testing.T) {
	type args struct {
		s string
	}
	tests := [...]struct {
		name string
		args args
		want []string
	}{
		{`empty`, args{""}, []string{}},
		{`single`, args{"www.example.test"}, []string{"www.example.test"}},
		{`multiple`, args{"a.example.test,b.example.test"}, []string{"a.example.test", "b.example.test"}},
		{`empty entries dropped`, args{"a.example.test,,b.example.test,"}, []string{"a.example.test", "b.example.test"}},
		{`spaces trimmed`, args{" a.example.test , b.example.test "}, []string{"a.example.test", "b.example.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SplitList(tt.args.s))
		})
	}
}
