package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ReconcileRequest
		wantErr error
	}{
		{"valid", ReconcileRequest{Reference: "ref_1", Source: SourceSweeper}, nil},
		{"blank reference", ReconcileRequest{Reference: "  ", Source: SourceSweeper}, ErrMissingReference},
		{"unknown source", ReconcileRequest{Reference: "ref_1", Source: "cron"}, ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
