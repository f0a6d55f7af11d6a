package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/goa/v3/eval"
	"goa.design/goa/v3/expr"
)

func TestDesignEvaluates(t *testing.T) {
	require.NoError(t, eval.RunDSL())

	inquiry := expr.Root.Service("inquiry")
	require.NotNil(t, inquiry)
	assert.NotNil(t, inquiry.Method("submit"))
	assert.NotNil(t, inquiry.Method("show"))
	assert.NotNil(t, expr.Root.Service("health"))

	submit := expr.Root.API.HTTP.Service("inquiry").Endpoint("submit")
	require.NotNil(t, submit)
	assert.Equal(t, "/api/v1/inquiries", submit.Routes[0].Path)

	tags := map[int]string{}
	for _, resp := range submit.Responses {
		tags[resp.StatusCode] = resp.Tag[1]
	}
	assert.Equal(t, map[int]string{201: "", 202: "notification_failed"}, tags)
}
