package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluelibs/runner-go/pkg/schema"
)

type notFoundData struct{ ID string }

func TestErrorDef_ThrowProducesRunnerError(t *testing.T) {
	notFound := NewError[notFoundData]("app.notFound",
		WithHTTPCode[notFoundData](404),
		WithRemediation[notFoundData]("check the id and retry"),
		WithFormatter[notFoundData](func(d notFoundData) string { return "not found: " + d.ID }),
	)

	err := notFound.Throw(notFoundData{ID: "user-1"})
	require.Error(t, err)

	var re *RunnerError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "app.notFound", re.DefID)
	assert.Equal(t, 404, re.HTTPCode)
	assert.Equal(t, "check the id and retry", re.Remediation)
	assert.Equal(t, "not found: user-1", re.Message)
	assert.NotEmpty(t, re.Stack)
}

func TestErrorDef_IsRecognizesOwnErrorsOnly(t *testing.T) {
	notFound := NewError[notFoundData]("app.notFound")
	conflict := NewError[notFoundData]("app.conflict")

	err := notFound.Throw(notFoundData{ID: "x"})
	assert.True(t, notFound.Is(err))
	assert.False(t, conflict.Is(err))
	assert.True(t, IsRunnerError(err))
}

func TestErrorDef_ThrowValidatesDataSchema(t *testing.T) {
	strict := NewError[string]("app.strict",
		WithErrorSchema[string](schema.Of[string](&schema.StringSchema{MinLength: 3})),
	)

	err := strict.Throw("ab")
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "error data", verr.Boundary)
}

func TestIsRunnerError_FalseForPlainErrors(t *testing.T) {
	assert.False(t, IsRunnerError(assertErrorLiteral("plain")))
}

type assertErrorLiteral string

func (e assertErrorLiteral) Error() string { return string(e) }
