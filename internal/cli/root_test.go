package cli

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid argument",
			err:  errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("bad flag"),
			want: 2,
		},
		{
			name: "not found",
			err:  errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("no such root"),
			want: 4,
		},
		{
			name: "internal",
			err:  errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("boom"),
			want: 5,
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, exitCodeForError(tt.err))
		})
	}
}

func TestExpandCommandRequiresArgs(t *testing.T) {
	cmd := newExpandCommand()
	cmd.SetArgs(nil)
	require.Error(t, cmd.Execute())
}
