package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

func TestStripDataURI(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "raw base64 unchanged", payload: "iVBORw0KGgo=", want: "iVBORw0KGgo="},
		{name: "png data URI", payload: "data:image/png;base64,iVBORw0KGgo=", want: "iVBORw0KGgo="},
		{name: "jpeg data URI", payload: "data:image/jpeg;base64,/9j/4AAQ", want: "/9j/4AAQ"},
		{name: "prefix without comma", payload: "data:image/png;base64", want: ""},
		{name: "empty", payload: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.StripDataURI(tt.payload))
		})
	}
}

func TestPipelineState_Busy(t *testing.T) {
	busy := []model.PipelineState{
		model.StateValidating, model.StateWriting, model.StateCompressing,
		model.StateCleanup, model.StateUploading,
	}
	idle := []model.PipelineState{
		model.StateIdle, model.StateCapturing, model.StateSuccess, model.StateFailed,
	}

	for _, s := range busy {
		assert.True(t, s.Busy(), "%s should hide the capture surface", s)
	}
	for _, s := range idle {
		assert.False(t, s.Busy(), "%s should show the capture surface", s)
	}
}

func TestCaptureResult(t *testing.T) {
	assert.Equal(t, model.CaptureEmpty, model.EmptyCapture().Kind)

	got := model.Captured("abc")
	assert.Equal(t, model.CaptureOK, got.Kind)
	assert.Equal(t, "abc", got.Base64)
}
