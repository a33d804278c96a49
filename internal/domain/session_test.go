package domain

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"ecs-execute-command-0a1b2c3d4e", "ecs-execute-command-0a1b2c3d4e"},
		{"arn:aws:sts::123456789012:assumed-role/Admin/alice", "arn-aws-sts-123456789012-assumed-role-Admin-alice"},
		{"__weird key", "weird-key"},
		{"sess.42~x", "sess.42~x"},
		{"::/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, TrailName(tt.key))
		})
	}
}

func TestResultConstructors(t *testing.T) {
	ok := Success("s-1", "done")
	assert.True(t, ok.OK())
	assert.Equal(t, http.StatusOK, ok.Code)

	failed := Failure("s-1", "locate", ErrorClassNotFound, "initiator not found")
	assert.False(t, failed.OK())
	assert.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.Equal(t, "locate", failed.Step)
	assert.Equal(t, ErrorClassNotFound, failed.ErrorClass)
}

func TestDetailOf(t *testing.T) {
	envelope := []byte(`{"detail-type":"Object Created","detail":{"object":{"key":"s.log"}}}`)
	assert.JSONEq(t, `{"object":{"key":"s.log"}}`, string(DetailOf(envelope)))

	bare := []byte(`{"object":{"key":"s.log"}}`)
	assert.Equal(t, string(bare), string(DetailOf(bare)))

	assert.Equal(t, "garbage", string(DetailOf([]byte("garbage"))))
}
