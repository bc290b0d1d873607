package respond

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/pkg/apperr"
)

func TestErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.NotFound("course not found"), http.StatusNotFound, "course not found"},
		{apperr.InvalidInput("grade is required"), http.StatusBadRequest, "grade is required"},
		{apperr.Conflict("already enrolled"), http.StatusConflict, "already enrolled"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, log.New(io.Discard, "", 0), tc.err)

		var body Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.status, rec.Code)
		assert.False(t, body.Success)
		assert.Equal(t, tc.msg, body.Message)
	}
}

type gradeRequest struct {
	Grade *int   `json:"grade" validate:"required,min=0,max=100"`
	Type  string `json:"submissionType" validate:"required,oneof=link text"`
}

func TestDecodeValidates(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"submissionType":"pdf"}`))
	var req gradeRequest
	err := Decode(r, &req)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
	assert.Contains(t, apperr.Message(err), "Grade is required")
	assert.Contains(t, apperr.Message(err), "Type must be one of [link text]")
}

func TestDecodeAcceptsZeroGrade(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"grade":0,"submissionType":"text"}`))
	var req gradeRequest
	require.NoError(t, Decode(r, &req))
	require.NotNil(t, req.Grade)
	assert.Equal(t, 0, *req.Grade)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var req gradeRequest
	assert.True(t, apperr.Is(Decode(r, &req), apperr.KindInvalidInput))
}
