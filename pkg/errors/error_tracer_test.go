package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTracer_Error(t *testing.T) {
	cause := errors.New("balance overflow: lot 7 balance of taker")

	testCases := []struct {
		name   string
		tracer *ErrorTracer
		want   string
	}{
		{
			name:   "message only",
			tracer: NewTracer(string(SnapshotLoadError)),
			want:   string(SnapshotLoadError),
		},
		{
			name:   "wrapped cause",
			tracer: NewTracer(string(SnapshotLoadError)).Wrap(cause),
			want:   string(SnapshotLoadError) + ": " + cause.Error(),
		},
		{
			name:   "from error",
			tracer: TracerFromError(cause),
			want:   cause.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tracer.Error())
			if tc.tracer.Err != nil {
				assert.ErrorIs(t, tc.tracer, cause)
				assert.NotNil(t, tc.tracer.StackTrace())
			}
		})
	}
}
